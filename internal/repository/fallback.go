package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/resilience"
)

type Backend string

const (
	BackendLocal Backend = "local"
	BackendCloud Backend = "cloud"
)

// Status describes which store is serving requests. Banner is set while the
// cloud store is configured but not in use.
type Status struct {
	Backend         Backend `json:"backend"`
	CloudConfigured bool    `json:"cloudConfigured"`
	Breaker         string  `json:"breaker,omitempty"`
	Banner          string  `json:"banner,omitempty"`
}

func (s Status) String() string {
	if s.Banner != "" {
		return fmt.Sprintf("%s (%s)", s.Backend, s.Banner)
	}
	return string(s.Backend)
}

// CloudDialer opens the cloud store. The returned close func releases it.
type CloudDialer func(ctx context.Context) (DocumentRepo, func(), error)

// FallbackRepo serves documents from the cloud store when one is reachable
// and from the local store otherwise. Successful cloud writes are mirrored
// locally so a later fallback starts from recent data. Concurrent cloud
// writers are not reconciled: the last save wins.
type FallbackRepo struct {
	local      DocumentRepo
	cloud      DocumentRepo
	closeCloud func()
	breaker    *resilience.Breaker
	log        *slog.Logger
	configured bool

	mu     sync.Mutex
	banner string
}

// NewLocalRepo returns a FallbackRepo that never leaves the local store.
func NewLocalRepo(local DocumentRepo, log *slog.Logger) *FallbackRepo {
	return &FallbackRepo{local: local, log: orDiscard(log)}
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}

// Connect dials the cloud store, waiting at most timeout. If the dial fails
// or runs out of time the returned repo serves the local store and reports
// the reason in its Status banner.
func Connect(ctx context.Context, local DocumentRepo, dial CloudDialer, timeout time.Duration, breaker *resilience.Breaker, log *slog.Logger) *FallbackRepo {
	r := &FallbackRepo{local: local, breaker: breaker, log: orDiscard(log), configured: dial != nil}
	if dial == nil {
		return r
	}
	if r.breaker == nil {
		r.breaker = resilience.NewBreaker(3, 30*time.Second)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type dialed struct {
		repo  DocumentRepo
		close func()
		err   error
	}
	done := make(chan dialed, 1)
	go func() {
		repo, closeFn, err := dial(ctx)
		done <- dialed{repo, closeFn, err}
	}()

	select {
	case d := <-done:
		if d.err != nil {
			r.degrade("connect", d.err)
			return r
		}
		r.cloud, r.closeCloud = d.repo, d.close
		r.log.Info("cloud store connected")
	case <-ctx.Done():
		r.degrade("connect", fmt.Errorf("no answer within %s", timeout))
		go func() {
			// A dial that ignores ctx may still succeed; release it.
			if d := <-done; d.err == nil && d.close != nil {
				d.close()
			}
		}()
	}
	return r
}

// Close releases the cloud connection, if any.
func (r *FallbackRepo) Close() {
	if r.closeCloud != nil {
		r.closeCloud()
	}
}

func (r *FallbackRepo) Status() Status {
	s := Status{Backend: BackendLocal, CloudConfigured: r.configured}
	if r.breaker != nil && r.cloud != nil {
		s.Breaker = r.breaker.State().String()
		if r.breaker.State() != resilience.StateOpen {
			s.Backend = BackendCloud
		}
	}
	r.mu.Lock()
	s.Banner = r.banner
	r.mu.Unlock()
	return s
}

func (r *FallbackRepo) Load(ctx context.Context, key string) (*Document, error) {
	if r.cloud == nil {
		return r.local.Load(ctx, key)
	}
	var doc *Document
	err := r.breaker.Execute(func() error {
		d, err := r.cloud.Load(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			return resilience.Ignore(err)
		}
		doc = d
		return err
	})
	switch {
	case err == nil:
		r.recovered()
		return doc, nil
	case errors.Is(err, domain.ErrNotFound):
		// Nothing in the cloud yet; start from the local copy.
		return r.local.Load(ctx, key)
	default:
		r.degrade("load "+key, err)
		return r.local.Load(ctx, key)
	}
}

func (r *FallbackRepo) Save(ctx context.Context, key string, body json.RawMessage) (*Document, error) {
	if r.cloud == nil {
		return r.local.Save(ctx, key, body)
	}
	var doc *Document
	err := r.breaker.Execute(func() error {
		d, err := r.cloud.Save(ctx, key, body)
		if errors.Is(err, domain.ErrValidation) {
			return resilience.Ignore(err)
		}
		doc = d
		return err
	})
	switch {
	case err == nil:
		r.recovered()
		if _, err := r.local.Save(ctx, key, body); err != nil {
			r.log.Warn("mirroring document locally failed", "key", key, "error", err)
		}
		return doc, nil
	case errors.Is(err, domain.ErrValidation):
		return nil, err
	default:
		r.degrade("save "+key, err)
		return r.local.Save(ctx, key, body)
	}
}

func (r *FallbackRepo) SaveMany(ctx context.Context, docs map[string]json.RawMessage) error {
	if r.cloud == nil {
		return r.local.SaveMany(ctx, docs)
	}
	err := r.breaker.Execute(func() error {
		err := r.cloud.SaveMany(ctx, docs)
		if errors.Is(err, domain.ErrValidation) {
			return resilience.Ignore(err)
		}
		return err
	})
	switch {
	case err == nil:
		r.recovered()
		if err := r.local.SaveMany(ctx, docs); err != nil {
			r.log.Warn("mirroring documents locally failed", "count", len(docs), "error", err)
		}
		return nil
	case errors.Is(err, domain.ErrValidation):
		return err
	default:
		r.degrade("save documents", err)
		return r.local.SaveMany(ctx, docs)
	}
}

func (r *FallbackRepo) History(ctx context.Context, key string, limit int) ([]Document, error) {
	if r.cloud == nil {
		return r.local.History(ctx, key, limit)
	}
	var out []Document
	err := r.breaker.Execute(func() error {
		h, err := r.cloud.History(ctx, key, limit)
		out = h
		return err
	})
	if err != nil {
		r.degrade("history "+key, err)
		return r.local.History(ctx, key, limit)
	}
	r.recovered()
	return out, nil
}

func (r *FallbackRepo) degrade(op string, err error) {
	r.mu.Lock()
	r.banner = "cloud unavailable: " + err.Error()
	r.mu.Unlock()
	r.log.Warn("cloud store unavailable, using local store", "op", op, "error", err)
}

func (r *FallbackRepo) recovered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.banner != "" {
		r.log.Info("cloud store reachable again")
	}
	r.banner = ""
}
