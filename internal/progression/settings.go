package progression

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidSettings = errors.New("invalid settings json")

// Settings stores the free-form app settings blob (theme, notification
// toggles and such). The progression engine never inspects its contents.
type Settings struct {
	store kvstore.Store
}

func NewSettings(store kvstore.Store) *Settings {
	return &Settings{store: store}
}

func (s *Settings) Get(ctx context.Context) json.RawMessage {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.settings.get")
	defer span.End()

	raw, found, err := s.store.Get(ctx, keyAppSettings)
	if err != nil {
		log.Errorf("load app settings, using empty blob: %s", err)
		return json.RawMessage(`{}`)
	}
	if !found {
		return json.RawMessage(`{}`)
	}
	return raw
}

func (s *Settings) Set(ctx context.Context, settings json.RawMessage) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.settings.set")
	defer span.End()

	if !json.Valid(settings) {
		log.Tracef("rejecting invalid app settings blob")
		return ErrInvalidSettings
	}
	return s.store.Set(ctx, keyAppSettings, settings)
}
