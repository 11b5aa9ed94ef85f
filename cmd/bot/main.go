package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/tg_wellness_bot/pkg/domain/bot/receiver"
	"github.com/napryag/tg_wellness_bot/pkg/domain/bot/receiver/config"
	"github.com/napryag/tg_wellness_bot/pkg/portal"
	"github.com/napryag/tg_wellness_bot/pkg/repository/store"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

func main() {

	// 1) Логгер
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// 2) Загружаем конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Err(errs.New("failed to load config").Wrap(err)).Msg("config init")
		return
	}

	// Контекст, завершающийся по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3) Локальное хранилище сессий (токены пользователей портала)
	repo, err := store.NewRepo(ctx, cfg.PostgreAddr)
	if err != nil {
		logger.Error().Err(err).Msg("connect session store")
		return
	}
	defer repo.Close()

	// 4) Клиент бэкенда портала
	api := portal.New(cfg.APIBaseURL, logger.With().Str("component", "portal").Logger())
	logger.Info().Str("backend", api.BaseURL()).Msg("portal client ready")

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("create bot api")
		return
	}
	bot.Debug = false

	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	flow := receiver.NewFlow(api, logger.With().Str("component", "flow").Logger())
	sessions := receiver.NewStore()
	handler := receiver.NewHandler(
		bot, api, flow, sessions, repo,
		time.Duration(cfg.NotifPollSec)*time.Second,
		cfg.BookingDays,
		logger.With().Str("component", "receiver").Logger(),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10
	updates := bot.GetUpdatesChan(u)

	// Горутина для корректного завершения
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down bot")
		// Останавливаем лонг-поллинг -> канал updates закроется, цикл ниже завершится
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if m := update.Message; m != nil {
			handler.HandleMessage(ctx, m)
			continue
		}
		if cq := update.CallbackQuery; cq != nil {
			handler.HandleCallback(ctx, cq)
		}
	}
	logger.Info().Msg("bot stopped")
}
