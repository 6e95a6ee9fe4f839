// Translation test endpoint.
//
// POST /translation/test runs a single text through the full translation
// pipeline (cache, provider, fallback) and reports the result together with
// cache provenance and wall-clock latency. It exists for operators and
// frontend developers to probe provider behavior without opening a chat.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/captain-yun7/medtranslate-v1/internal/translate"
)

// TestTranslationRequest is the JSON payload for the translation probe.
type TestTranslationRequest struct {
	Text       string `json:"text" binding:"required,min=1,max=2000"`
	SourceLang string `json:"source_lang" binding:"required,min=2,max=10"`
	TargetLang string `json:"target_lang" binding:"required,min=2,max=10"`
	// Context optionally selects the prompt profile ("medical" or "general").
	Context string `json:"context,omitempty"`
}

// TestTranslationResponse reports a single pipeline run.
type TestTranslationResponse struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
	Cached         bool   `json:"cached"`
	Provider       string `json:"provider"`
	ElapsedMS      int64  `json:"elapsed_time_ms"`
}

// TestTranslation handles POST /translation/test.
func (h *Handlers) TestTranslation(c *gin.Context) {
	var req TestTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text, source_lang and target_lang are required")
		return
	}

	start := time.Now()
	res := h.Translator.Translate(c.Request.Context(), translate.Request{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Context:    req.Context,
	})

	ok(c, http.StatusOK, TestTranslationResponse{
		OriginalText:   req.Text,
		TranslatedText: res.Text,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		Cached:         res.Cached,
		Provider:       h.Translator.Info().Provider,
		ElapsedMS:      time.Since(start).Milliseconds(),
	})
}
