package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/segtag/nlp/bio"
	"github.com/oarkflow/segtag/nlp/dataset"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/normalizer"
	"github.com/oarkflow/segtag/nlp/pipeline"
	"github.com/oarkflow/segtag/nlp/store"
)

type wordRequest struct {
	Word string `json:"word"`
}

type batchRequest struct {
	Words []string `json:"words"`
}

type bioRequest struct {
	Word      string                `json:"word"`
	Morphemes []morphology.Morpheme `json:"morphemes"`
	Spans     []bio.Span            `json:"spans"`
}

type bioResponse struct {
	Word   string   `json:"word"`
	Labels []string `json:"labels"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "store": s.store != nil})
}

func (s *Server) analyze(c *fiber.Ctx) error {
	var req wordRequest
	if err := c.BodyParser(&req); err != nil {
		return formatError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	return c.JSON(s.Engine().Analyze(req.Word))
}

func (s *Server) analyzeBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return formatError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if s.cfg.MaxBatch > 0 && len(req.Words) > s.cfg.MaxBatch {
		return formatError(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d words exceeds limit %d", len(req.Words), s.cfg.MaxBatch))
	}
	results, err := pipeline.Run(c.UserContext(), s.Engine(), req.Words, s.pipeline)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

func (s *Server) encodeBIO(c *fiber.Ctx) error {
	var req bioRequest
	if err := c.BodyParser(&req); err != nil {
		return formatError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	spans := req.Spans
	if len(req.Morphemes) > 0 {
		spans = bio.SpansOf(req.Morphemes)
	}
	if err := bio.CheckSpans(req.Word, spans); err != nil {
		if s.metrics != nil {
			s.metrics.BIORejected(rejectReason(err))
		}
		return formatError(c, fiber.StatusBadRequest, err.Error())
	}
	labels, err := bio.Encode(req.Word, spans)
	if err != nil {
		return formatError(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(bioResponse{Word: req.Word, Labels: labels})
}

func rejectReason(err error) string {
	if errors.Is(err, bio.ErrUnknownSpanType) {
		return "unknown_span_type"
	}
	return "out_of_bounds"
}

func (s *Server) createRecord(c *fiber.Ctx) error {
	var req wordRequest
	if err := c.BodyParser(&req); err != nil {
		return formatError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	rec, err := dataset.FromResult(s.Engine().Analyze(req.Word))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if s.store == nil {
		return c.JSON(fiber.Map{"record": rec, "persisted": false})
	}
	batchID := c.Get("X-Batch-ID")
	if batchID == "" {
		batchID = store.NewBatchID()
	}
	if err := s.store.Save(rec, batchID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	s.logger.Debug("record saved", slog.String("word", rec.Key()), slog.String("batch_id", batchID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"record": rec, "persisted": true, "batch_id": batchID})
}

func (s *Server) getRecord(c *fiber.Ctx) error {
	if s.store == nil {
		return formatError(c, fiber.StatusServiceUnavailable, "record store is not configured")
	}
	raw, err := url.PathUnescape(c.Params("word"))
	if err != nil {
		return formatError(c, fiber.StatusBadRequest, "invalid word")
	}
	rec, err := s.store.Get(normalizer.Normalize(raw))
	if errors.Is(err, store.ErrNotFound) {
		return formatError(c, fiber.StatusNotFound, "record not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(rec)
}

func (s *Server) listRecords(c *fiber.Ctx) error {
	if s.store == nil {
		return formatError(c, fiber.StatusServiceUnavailable, "record store is not configured")
	}
	records, err := s.store.List(c.QueryInt("limit", 100))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}
