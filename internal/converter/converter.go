// Package converter orchestrates a full booking-code conversion: extract
// from the source provider, match each event on the target, translate
// markets and outcomes, and re-book what survived. Selections are processed
// in input order; the aggregate odds and the failed-selection list depend
// on it, and sequential processing keeps outbound search fan-out bounded.
package converter

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"betbridge/internal/notify"
	"betbridge/internal/pkg/models"
	"betbridge/internal/pkg/storage"
	"betbridge/internal/providers"
	"betbridge/internal/translator"
)

const (
	StatusSuccess = "success"
	StatusPartial = "partial"

	TicketTypeConverted = "converted"
)

type Converter struct {
	set      providers.Set
	trans    *translator.Translator
	recorder storage.Recorder
	notifier *notify.TelegramNotifier
}

func New(set providers.Set, trans *translator.Translator, recorder storage.Recorder, notifier *notify.TelegramNotifier) *Converter {
	if recorder == nil {
		recorder = storage.NoopRecorder{}
	}
	return &Converter{set: set, trans: trans, recorder: recorder, notifier: notifier}
}

// Providers exposes the configured adapter set for the HTTP surface.
func (c *Converter) Providers() providers.Set { return c.set }

// Convert rebuilds the booking code on the target provider. Selections that
// cannot be matched or translated are excluded from the booking and reported
// with a reason; the conversion fails outright only when extraction fails,
// nothing survives translation, or the target rejects the final booking.
func (c *Converter) Convert(ctx context.Context, code, sourceName, targetName string) (*models.ConversionResult, error) {
	source, err := c.set.Get(sourceName)
	if err != nil {
		return nil, err
	}
	target, err := c.set.Get(targetName)
	if err != nil {
		return nil, err
	}

	selections, err := source.Extract(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, &models.ExtractionError{Provider: source.Name(), Code: code,
			Err: errors.New("booking code contains no selections")}
	}

	translated := make([]models.Selection, 0, len(selections))
	for _, sel := range selections {
		translated = append(translated, c.convertSelection(ctx, sel, source, target))
	}

	valid, failed := partition(translated)
	if len(valid) == 0 {
		failure := &models.TotalConversionFailure{Target: target.Name(), Failures: failed}
		c.notifyConversionFailed(sourceName, targetName, code, len(failed), len(translated), failure.Error())
		return nil, failure
	}

	convertedCode, err := target.Book(ctx, valid)
	if err != nil {
		var bookErr *models.BookingError
		if errors.As(err, &bookErr) {
			c.notifyBookingFailed(targetName, code, bookErr.Error())
		}
		return nil, err
	}

	result := &models.ConversionResult{
		Status:        StatusSuccess,
		OriginalCode:  code,
		ConvertedCode: convertedCode,
		TotalOdds:     formatTotalOdds(valid),
		Stats: models.ConversionStats{
			Total:     len(translated),
			Converted: len(valid),
			Failed:    len(failed),
		},
		Selections:       translated,
		FailedSelections: failed,
	}
	if len(failed) > 0 {
		result.Status = StatusPartial
	}

	c.recordTicket(target.Name(), convertedCode, result)
	return result, nil
}

// Extract decodes a booking code without converting it.
func (c *Converter) Extract(ctx context.Context, code, sourceName string) ([]models.Selection, error) {
	source, err := c.set.Get(sourceName)
	if err != nil {
		return nil, err
	}
	return source.Extract(ctx, code)
}

// Book re-books already-translated selections on the named provider.
func (c *Converter) Book(ctx context.Context, targetName string, selections []models.Selection) (string, error) {
	target, err := c.set.Get(targetName)
	if err != nil {
		return "", err
	}
	code, err := target.Book(ctx, selections)
	if err != nil {
		var bookErr *models.BookingError
		if errors.As(err, &bookErr) {
			c.notifyBookingFailed(target.Name(), "", bookErr.Error())
		}
		return "", err
	}
	return code, nil
}

// convertSelection resolves one selection against the target: event match
// first, then market/outcome translation. The returned selection carries a
// terminal status either way.
func (c *Converter) convertSelection(ctx context.Context, sel models.Selection, source, target providers.Provider) models.Selection {
	candidate := target.FindEvent(ctx, sel.Home, sel.Away, sel.Date)
	if candidate == nil {
		slog.Debug("Converter: no event match on target",
			"target", target.Name(), "match", sel.Name())
		// Translate anyway so the reported selection carries target market
		// ids, then force the terminal status: without a target event there
		// is nothing to book regardless of how translation went.
		sel = c.trans.Translate(sel, source.Name(), target.Name())
		sel.Status = models.StatusEventNotFound
		return sel
	}

	// Re-stamp identity from the matched target event. The matched names
	// replace the source names so downstream booking sees target data.
	sel.EventID = candidate.ID
	sel.GameID = candidate.GameID
	if candidate.Home != "" {
		sel.Home = candidate.Home
	}
	if candidate.Away != "" {
		sel.Away = candidate.Away
	}

	return c.trans.Translate(sel, source.Name(), target.Name())
}

// partition splits translated selections into bookable and failed. A
// selection books only when mapped and carrying a target game id.
func partition(translated []models.Selection) ([]models.Selection, []models.FailedSelection) {
	var valid []models.Selection
	var failed []models.FailedSelection
	for _, sel := range translated {
		if sel.Status == models.StatusMapped && sel.GameID != "" {
			valid = append(valid, sel)
			continue
		}
		failed = append(failed, models.FailedSelection{
			Match:  sel.Name(),
			Reason: models.FailureReason(sel.Status),
		})
	}
	return valid, failed
}

// formatTotalOdds multiplies the booked selections' odds, rounded to two
// decimals.
func formatTotalOdds(selections []models.Selection) string {
	product := 1.0
	for _, sel := range selections {
		if sel.Outcome.Odds > 0 {
			product *= sel.Outcome.Odds
		}
	}
	return strconv.FormatFloat(math.Round(product*100)/100, 'f', 2, 64)
}

// recordTicket persists the produced code asynchronously; history is
// best-effort and never delays or fails the conversion.
func (c *Converter) recordTicket(bookmaker, code string, result *models.ConversionResult) {
	// The share code is the natural ticket id; a random one only covers a
	// provider answering success without a code.
	ticketID := code
	if ticketID == "" {
		ticketID = uuid.NewString()
	}
	ticket := storage.Ticket{
		TicketID:    ticketID,
		Bookmaker:   bookmaker,
		BookingCode: code,
		MatchCount:  result.Stats.Converted,
		TicketType:  TicketTypeConverted,
	}
	if odds, err := strconv.ParseFloat(result.TotalOdds, 64); err == nil {
		ticket.TotalOdds = odds
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.recorder.Record(ctx, ticket); err != nil {
			slog.Warn("Converter: ticket history write failed", "error", err, "ticket_id", ticket.TicketID)
		}
	}()
}

func (c *Converter) notifyConversionFailed(source, target, code string, failed, total int, detail string) {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.notifier.ConversionFailed(ctx, source, target, code, failed, total, detail); err != nil {
		slog.Debug("Converter: conversion alert not queued", "error", err)
	}
}

func (c *Converter) notifyBookingFailed(target, code, detail string) {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.notifier.BookingFailed(ctx, target, code, detail); err != nil {
		slog.Debug("Converter: booking alert not queued", "error", err)
	}
}
