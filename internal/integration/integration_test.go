package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/infra/memory"
	pgloader "mindgap-tutor/internal/infra/postgres"
	pgmigrations "mindgap-tutor/internal/infra/postgres/migrations"
	infraredis "mindgap-tutor/internal/infra/redis"
	"mindgap-tutor/internal/logger"
)

type captureReporter struct {
	mu     sync.Mutex
	events []domain.Completion
}

func (r *captureReporter) Report(_ context.Context, c domain.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, c)
	return nil
}

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := memory.ChainLoader{pgloader.NewQuizLoader(pool)}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	reporter := &captureReporter{}
	service := app.NewTutorService(sessionStore, quizRepo, []app.Reporter{reporter}, logger.NewNop())

	if _, err := service.Start(ctx, "astronomy", ""); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	started, err := service.Start(ctx, "  arithmetic ", "intermediate")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Lesson == "" || started.State.Total != 2 {
		t.Fatalf("unexpected start result: %+v", started)
	}
	id := started.State.SessionID

	if _, err := service.Select(ctx, id, "4"); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap, err := sessionStore.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Revealed || snap.Score != 1 {
		t.Fatalf("expected revealed snapshot with score 1, got %+v", snap)
	}
	if _, err := service.Advance(ctx, id); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := service.Select(ctx, id, "7"); err != nil {
		t.Fatalf("select: %v", err)
	}
	st, err := service.Advance(ctx, id)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !st.Finished() || st.Result.Score != 1 || st.Result.Total != 2 {
		t.Fatalf("expected finished 1/2, got %+v", st)
	}

	service.Wait()
	if len(reporter.events) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(reporter.events))
	}
	if got := reporter.events[0]; got.Difficulty != domain.Intermediate || !got.NeedsReview() {
		t.Fatalf("unexpected completion: %+v", got)
	}

	service.Abandon(ctx, id)
	if _, err := sessionStore.Snapshot(ctx, id); err == nil {
		t.Fatalf("expected snapshot to be removed after abandon")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO quizzes (id, topic, difficulty, data) VALUES (?, ?, ?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		quiz.ID, quiz.Topic, string(quiz.Difficulty), string(data))
	if err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "arithmetic",
		Topic:  "Arithmetic",
		Lesson: "Addition combines quantities; multiplication repeats addition.",
		Questions: []domain.QuestionRecord{
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Explanation: "Two plus two is four."},
			{Prompt: "What is 3 x 4?", Options: []string{"7", "12"}, CorrectAnswer: "12", Explanation: "Three fours make twelve."},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
