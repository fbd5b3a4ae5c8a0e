package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
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

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	pgloader "timed-quiz-service/internal/infra/postgres"
	pgmigrations "timed-quiz-service/internal/infra/postgres/migrations"
	infraredis "timed-quiz-service/internal/infra/redis"
)

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedDocument(t, ctx, pgURL, sampleDocument())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewDocumentLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	docs := infraredis.NewDocumentRepository(redisClient, loader, 5*time.Minute)
	snapshots := infraredis.NewSnapshotStore(redisClient, 5*time.Minute)
	service := app.NewSessionService(docs, snapshots)

	view, err := service.Load(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Total != 2 {
		t.Fatalf("expected 2 questions, got %+v", view)
	}
	key := app.SessionKey("quiz-1", "u1")

	// Answer the first question correctly and move on.
	rows, err := service.Review(ctx, key)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	correct := -1
	for i, opt := range rows[0].Options {
		if opt.Correct {
			correct = i
		}
	}
	if correct == -1 {
		t.Fatalf("no correct option: %+v", rows[0])
	}
	if _, err := service.Answer(ctx, key, correct); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Next(ctx, key, nil); err != nil {
		t.Fatalf("next: %v", err)
	}

	// Simulate a reload: the run resumes from the Redis snapshot with the
	// same question and option ordering.
	service.Leave(key)
	resumed, err := service.Load(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if resumed.Position != 2 {
		t.Fatalf("expected resumed position 2, got %+v", resumed)
	}
	after, err := service.Review(ctx, key)
	if err != nil {
		t.Fatalf("review after reload: %v", err)
	}
	if !after[0].Options[correct].Selected {
		t.Fatalf("expected answer to survive reload: %+v", after[0])
	}

	summary, err := service.Finish(ctx, key, nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if summary.CorrectCount != 1 || summary.Percent != 50 || !summary.Passed {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// A finished run must not resume.
	service.Leave(key)
	fresh, err := service.Load(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("load after finish: %v", err)
	}
	if fresh.Finished || fresh.Position != 1 || fresh.Selected != nil {
		t.Fatalf("expected fresh session after finish, got %+v", fresh)
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

func seedDocument(t *testing.T, ctx context.Context, dsn string, doc domain.QuizDocument) {
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

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quiz_documents (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, doc.ID, string(data)); err != nil {
		t.Fatalf("insert document: %v", err)
	}
}

func sampleDocument() domain.QuizDocument {
	return domain.QuizDocument{
		ID:            "quiz-1",
		Title:         "Integration sample",
		PassThreshold: 0.5,
		Questions: []domain.SourceQuestion{
			{ID: "q1", Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
			{ID: "q2", Text: "What is 3 * 3?", Options: []string{"9", "6"}, CorrectIndex: 0},
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
