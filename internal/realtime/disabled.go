package realtime

import (
	"context"
	"errors"
)

// ErrDisabled reports that no realtime database is configured.
var ErrDisabled = errors.New("realtime database not configured")

// Disabled returns a Client for running without a realtime database. Reads
// and writes fail with ErrDisabled; watches stay open but never deliver.
func Disabled() Client { return disabledClient{} }

type disabledClient struct{}

func (disabledClient) Get(_ context.Context, _ string, _ any) error { return ErrDisabled }

func (disabledClient) Set(_ context.Context, _ string, _ any) error { return ErrDisabled }

func (disabledClient) Watch(ctx context.Context, _ string) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
