package infra

import (
	"context"
	"sync"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

// WindowStore é o rate limiter em memória: uma janela de timestamps por chave,
// com cache por chave e limpeza periódica.
//
// O mapa é protegido por mu; cada janela tem o próprio lock, então chaves
// diferentes não disputam entre si.
type WindowStore struct {
	mu           sync.Mutex
	entries      map[string]*window
	max          int
	window       time.Duration
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type window struct {
	mu         sync.Mutex
	max        int
	length     time.Duration
	timestamps []time.Time
	lastSeen   time.Time
}

type StoreOption func(*WindowStore)

// WithIdleTTL define após quanto tempo ocioso uma janela pode ser descartada.
// Valores menores que a própria janela são elevados a ela.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado para lastSeen e Cleanup (testes).
func WithClock(now func() time.Time) StoreOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(maxRequests int, length time.Duration, opts ...StoreOption) *WindowStore {
	s := &WindowStore{
		entries:      make(map[string]*window),
		max:          maxRequests,
		window:       length,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL < s.window {
		s.idleTTL = s.window
	}
	return s
}

func (s *WindowStore) MaxRequests() int { return s.max }
func (s *WindowStore) Window() time.Duration { return s.window }
func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Len retorna quantas identidades têm janela ativa.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get implementa domain.LimiterStore.
func (s *WindowStore) Get(key domain.Key) domain.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	k := string(key)
	if w, ok := s.entries[k]; ok {
		w.touch(now)
		return w
	}

	w := &window{max: s.max, length: s.window, lastSeen: now}
	s.entries[k] = w
	return w
}

// Cleanup remove janelas ociosas. Uma janela descartada não guarda nada que
// ainda conte no orçamento, então a próxima requisição da chave começa do zero.
func (s *WindowStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.entries {
		if w.idleSince(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

func (w *window) touch(now time.Time) {
	w.mu.Lock()
	if now.After(w.lastSeen) {
		w.lastSeen = now
	}
	w.mu.Unlock()
}

func (w *window) idleSince(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen.Before(cutoff)
}

// Allow implementa domain.Limiter.
//
// Requisição negada não é registrada: ela não ocupa vaga na janela.
func (w *window) Allow(now time.Time) domain.Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	// relógios lidos fora do lock podem chegar fora de ordem
	if n := len(w.timestamps); n > 0 && now.Before(w.timestamps[n-1]) {
		now = w.timestamps[n-1]
	}

	w.prune(now)
	if now.After(w.lastSeen) {
		w.lastSeen = now
	}

	// Retry-After é sempre a janela inteira, como no contrato HTTP;
	// o instante exato do reset vai em ResetAt.
	if len(w.timestamps) >= w.max {
		return domain.Decision{
			Allowed:    false,
			Limit:      w.max,
			Remaining:  0,
			ResetAt:    w.resetAt(now),
			RetryAfter: ceilSeconds(w.length),
		}
	}

	w.timestamps = append(w.timestamps, now)
	return domain.Decision{
		Allowed:   true,
		Limit:     w.max,
		Remaining: w.max - len(w.timestamps),
		ResetAt:   w.resetAt(now),
	}
}

// prune descarta timestamps anteriores a now-length. Os timestamps chegam em
// ordem, então basta achar o primeiro ainda válido.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.length)
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.timestamps, w.timestamps[i:])
	clear(w.timestamps[n:])
	w.timestamps = w.timestamps[:n]
}

func (w *window) resetAt(now time.Time) time.Time {
	if len(w.timestamps) == 0 {
		return now.Add(w.length)
	}
	return w.timestamps[0].Add(w.length)
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	s := d.Truncate(time.Second)
	if s < d {
		s += time.Second
	}
	return s
}
