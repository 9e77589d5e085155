package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/bank"
	"study-quiz-service/internal/config"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/memory"
	pgstore "study-quiz-service/internal/infra/postgres"
	redisstore "study-quiz-service/internal/infra/redis"
	sqlitestore "study-quiz-service/internal/infra/sqlite"
)

// stack is the wired service plus the connections it owns.
type stack struct {
	service *app.QuizService
	catalog *memory.Catalog
	closers []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStack wires stores from config. historyDriver overrides cfg.HistoryDriver when set.
func buildStack(ctx context.Context, cfg config.Config, historyDriver string) (*stack, error) {
	st := &stack{}
	ok := false
	defer func() {
		if !ok {
			st.Close()
		}
	}()

	quizzes, err := loadBank(cfg.Quiz.BankPath)
	if err != nil {
		return nil, err
	}
	st.catalog = memory.NewCatalog(quizzes)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
	}

	var loader memory.QuizLoader = st.catalog
	var writer app.QuizWriter = st.catalog
	if pool != nil {
		pg := pgstore.NewQuizLoader(pool)
		loader = fallbackLoader{primary: pg, fallback: st.catalog}
		writer = pg
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	if historyDriver == "" {
		historyDriver = cfg.HistoryDriver()
	}
	var history app.HistoryStore
	switch historyDriver {
	case config.HistoryMemory:
		history = memory.NewHistoryStore()
	case config.HistoryRedis:
		if redisClient == nil {
			return nil, errors.New("history driver redis requires redis.addr")
		}
		history = redisstore.NewHistoryStore(redisClient)
	case config.HistoryPostgres:
		if pool == nil {
			return nil, errors.New("history driver postgres requires postgres.url")
		}
		history = pgstore.NewHistoryStore(pool)
	case config.HistorySQLite:
		db, err := sqlitestore.Open(ctx, cfg.History.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		st.closers = append(st.closers, func() { db.Close() })
		history = sqlitestore.NewHistoryStore(db)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", historyDriver)
	}

	policy, err := cfg.ScoringPolicy()
	if err != nil {
		return nil, err
	}
	st.service = app.NewQuizService(sessions, quizRepo, writer, history, app.ServiceOptions{
		Scoring:         policy,
		HistoryThrottle: config.TTLDuration(cfg.History.Throttle, app.DefaultHistoryThrottle),
	})
	log.Printf("quiz service wired: %d topics, history=%s, scoring=%+v", len(quizzes), historyDriver, policy)
	ok = true
	return st, nil
}

// loadBank reads the configured bank, or the built-in one when path is empty.
func loadBank(path string) ([]domain.Quiz, error) {
	if path == "" {
		return bank.Builtin()
	}
	return bank.Load(path)
}

// fallbackLoader serves authored quizzes from the primary store and bank topics from the catalog.
type fallbackLoader struct {
	primary  memory.QuizLoader
	fallback memory.QuizLoader
}

func (l fallbackLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := l.primary.LoadQuiz(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return l.fallback.LoadQuiz(ctx, quizID)
	}
	return quiz, err
}
