// Package session implements the caller-facing API: the thin, per-stream
// wrapper a host application drives one NAL unit at a time.
package session

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/svvalidate/common/errs"
	"github.com/bugVanisher/svvalidate/media/gop"
	"github.com/bugVanisher/svvalidate/media/nalu"
	"github.com/bugVanisher/svvalidate/media/report"
	"github.com/bugVanisher/svvalidate/media/validation"
	"github.com/bugVanisher/svvalidate/media/verifier"
	"github.com/bugVanisher/svvalidate/statistics"
)

// Session is one signed-video validation pipeline: a codec, a Verifier,
// and everything the Validation Engine needs to track between calls.
// There is no explicit free/report_free — a Session and the reports it
// returns are ordinary Go values reclaimed by the garbage collector once
// the caller drops its last reference.
type Session struct {
	codec    nalu.Codec
	engine   *validation.Engine
	log      zerolog.Logger
	counters *statistics.AccumulatedCounters
	summary  *statistics.PeriodicSummary
}

// Version is surfaced on every report as the validating side's version.
const Version = "v1.0.0"

// New creates a Session for the given codec, using v to check signatures.
func New(codec nalu.Codec, v verifier.Verifier) *Session {
	s := &Session{
		codec:    codec,
		log:      log.With().Str("component", "session").Str("codec", codec.String()).Logger(),
		counters: statistics.NewAccumulatedCounters(),
		summary:  statistics.NewPeriodicSummary(50),
	}
	s.engine = validation.NewEngine(codec, validation.Config{Level: gop.LevelGOP, ThisVersion: Version}, v)
	return s
}

// Counters exposes the session's running AccumulatedCounters, independent
// of report.Report.Accumulated (which only reflects the engine's own
// bookkeeping). Useful for a host that wants to log a summary on its own
// schedule rather than per-report.
func (s *Session) Counters() *statistics.AccumulatedCounters {
	return s.counters
}

// SetAuthenticityLevel switches between GOP and FRAME granularity. Safe to
// call mid-stream; it applies to every GOP verified after the call,
// including closed GOPs still waiting for their SEI or a public key.
func (s *Session) SetAuthenticityLevel(level gop.Level) {
	s.log.Info().Str("level", levelName(level)).Msg("authenticity level changed")
	s.engine.SetLevel(level)
}

// SetRecurrenceIntervalFrames configures how often recurrent SEI tags
// (PRODUCT_INFO, PUBLIC_KEY, VENDOR_AXIS) are expected. The engine stores
// the values; no validation step reads them, and a SEI without recurrent
// tags is accepted whatever the schedule says.
func (s *Session) SetRecurrenceIntervalFrames(interval, offset int) {
	s.log.Info().Int("interval", interval).Int("offset", offset).Msg("recurrence interval changed")
	s.engine.SetRecurrence(interval, offset)
}

// AddNaluAndAuthenticate parses one NAL unit (Annex-B or length-prefixed,
// start code/prefix included) and feeds it to the validation engine. It
// returns a non-nil Report only when this call caused one or more GOPs to
// settle.
func (s *Session) AddNaluAndAuthenticate(data []byte) (*report.Report, error) {
	if len(data) == 0 {
		return nil, errs.ErrInvalidParameter
	}
	info := nalu.Parse(data, s.codec)
	if info.Validity == nalu.ValidityError {
		s.log.Warn().Str("nalu", info.String()).Msg("failed to parse nalu")
	}

	rep := s.engine.AddNalu(info)
	if rep == nil {
		return nil, nil
	}

	s.logReport(rep)
	return rep, nil
}

// Reset clears all in-flight GOP state, as if a new session had started
// mid-stream, while keeping the session's accumulated counters and active
// public key.
func (s *Session) Reset() {
	s.log.Info().Msg("session reset")
	s.engine.Reset()
}

func (s *Session) logReport(rep *report.Report) {
	ev := s.log.Info()
	if rep.Latest.Authenticity == report.AuthenticityNotOK {
		ev = s.log.Warn()
	}
	ev.Str("authenticity", rep.Latest.Authenticity.String()).
		Str("validation_str", rep.Latest.ValidationStr).
		Int("received", rep.Latest.NumberOfReceivedPictureNalus).
		Int("expected", rep.Latest.NumberOfExpectedPictureNalus).
		Int("pending", rep.Latest.NumberOfPendingPictureNalus).
		Bool("key_changed", rep.Latest.PublicKeyHasChanged).
		Msg("gop settled")

	if rep.Latest.PublicKeyHasChanged {
		s.log.Warn().Msg("public key rotated")
	}

	s.counters.Add(rep.Latest)
	if s.summary.Tick() {
		s.log.Info().Str("summary", s.counters.String()).Msg("periodic summary")
	}
}

func levelName(l gop.Level) string {
	if l == gop.LevelFrame {
		return "FRAME"
	}
	return "GOP"
}
