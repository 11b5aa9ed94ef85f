package notifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Poller — периодическая задача, привязанная к жизни одного экрана:
// открыли экран уведомлений — тикает, ушли с экрана — контекст отменили,
// горутина умерла. Ошибки тика логируются и не останавливают опрос.
type Poller struct {
	interval time.Duration
	logger   zerolog.Logger
	tick     func(ctx context.Context) error
}

func New(interval time.Duration, logger zerolog.Logger, tick func(ctx context.Context) error) *Poller {
	return &Poller{
		interval: interval,
		logger:   logger,
		tick:     tick,
	}
}

// Run крутит опрос до отмены контекста. Первый тик — сразу по интервалу:
// открывший экран обработчик уже загрузил свежие данные сам.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.tick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn().Err(err).Msg("notification poll failed")
			}
		}
	}
}
