package web

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lexivox/speechkit/pkg/router"
	"github.com/lexivox/speechkit/pkg/tts"
	"github.com/lexivox/speechkit/pkg/voices"
)

// SynthesizeRequest is the wire request for POST /api/synthesize.
type SynthesizeRequest struct {
	Text            string  `json:"text"`
	Provider        string  `json:"provider,omitempty"`
	VoiceID         string  `json:"voiceId,omitempty"`
	Model           string  `json:"model,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	ResponseFormat  string  `json:"responseFormat,omitempty"`
	UserLevel       string  `json:"userLevel,omitempty"`
	FallbackEnabled *bool   `json:"fallbackEnabled,omitempty"`
}

// ErrorResponse is the structured failure body.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Providers []string `json:"providers,omitempty"`
}

// handleSynthesize routes a synthesis request and returns raw audio bytes.
// Metadata headers identify the vendor that served the request and whether
// failover occurred.
func (s *Server) handleSynthesize(c *fiber.Ctx) error {
	var req SynthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	// Malformed requests are rejected here, never sent upstream.
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "text is required",
		})
	}

	fallback := true
	if req.FallbackEnabled != nil {
		fallback = *req.FallbackEnabled
	}

	result, err := s.router.Route(c.Context(), router.Request{
		Text:            req.Text,
		Provider:        req.Provider,
		VoiceID:         req.VoiceID,
		Model:           req.Model,
		Speed:           req.Speed,
		Format:          tts.Encoding(req.ResponseFormat),
		UserLevel:       tts.UserLevel(req.UserLevel),
		FallbackEnabled: fallback,
	})
	if err != nil {
		return s.synthesisError(c, req, err)
	}

	if result.FallbackOccurred {
		s.publish("fallback", result.ProviderUsed, result.PrimaryProvider, len(req.Text), "")
	} else {
		s.publish("served", result.ProviderUsed, "", len(req.Text), "")
	}

	c.Set(tts.HeaderProviderUsed, result.ProviderUsed)
	c.Set(tts.HeaderVoiceUsed, result.VoiceUsed)
	c.Set("X-Audio-Encoding", string(result.Format.Encoding))
	if result.FallbackOccurred {
		c.Set(tts.HeaderFallbackOccurred, "true")
		c.Set(tts.HeaderPrimaryProvider, result.PrimaryProvider)
	}
	c.Set(fiber.HeaderContentType, contentTypeFor(result.Format.Encoding))
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(result.Audio)))

	return c.Send(result.Audio)
}

// synthesisError maps routing failures to wire responses. Single-vendor
// failures mirror the upstream status; a both-vendors failure is a 500.
func (s *Server) synthesisError(c *fiber.Ctx, req SynthesizeRequest, err error) error {
	s.logger.Warn("synthesis failed",
		"provider", req.Provider,
		"error", err,
	)

	var routingErr *router.RoutingError
	if errors.As(err, &routingErr) {
		s.publish("error", "", "", len(req.Text), routingErr.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     routingErr.Error(),
			Providers: routingErr.ProviderNames(),
		})
	}

	if errors.Is(err, tts.ErrUnknownProvider) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	s.publish("error", req.Provider, "", len(req.Text), err.Error())

	var apiErr *tts.APIError
	if errors.As(err, &apiErr) {
		// Mirror the failing upstream call.
		return c.Status(apiErr.StatusCode).JSON(ErrorResponse{
			Error:     apiErr.Error(),
			Providers: []string{apiErr.Provider},
		})
	}

	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
		Error: err.Error(),
	})
}

// CatalogVoice is a Voice tagged with its vendor.
type CatalogVoice struct {
	Provider string `json:"provider"`
	voices.Voice
}

// handleVoices returns the combined vendor catalogs.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	var out []CatalogVoice
	for _, p := range s.router.Providers() {
		for _, v := range p.Voices() {
			out = append(out, CatalogVoice{Provider: p.Name(), Voice: v})
		}
	}
	return c.JSON(fiber.Map{"voices": out})
}

// handleHealth reports whether at least one vendor is reachable.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.router.Health(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// contentTypeFor maps an encoding to its MIME type.
func contentTypeFor(enc tts.Encoding) string {
	switch enc {
	case tts.EncodingMP3:
		return "audio/mpeg"
	case tts.EncodingOpus:
		return "audio/ogg"
	case tts.EncodingWAV:
		return "audio/wav"
	case tts.EncodingPCM16, tts.EncodingPCM22, tts.EncodingPCM24:
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}
