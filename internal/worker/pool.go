package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAuditoria = "jobs:auditoria"
	QueueAlertas   = "jobs:alertas"
	QueueEmail     = "jobs:email"
)

const (
	JobMovimientos  = "movimientos"
	JobActividad    = "actividad"
	JobEvaluarStock = "evaluar_stock"
	JobEmail        = "email"
)

// MaxAttempts is how many times a job runs before it goes to the DLQ.
const MaxAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// HandlerFunc processes one job payload. A non-nil error schedules a retry.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Handlers maps job types to their processors.
type Handlers map[string]HandlerFunc

var errNoRedis = errors.New("dispatcher: redis not configured")

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueMovimientos pushes inventory audit rows for a sale or a void.
func (d *Dispatcher) EnqueueMovimientos(ctx context.Context, p MovimientosPayload) error {
	return d.enqueue(ctx, QueueAuditoria, JobMovimientos, p)
}

// EnqueueActividad pushes one activity log entry.
func (d *Dispatcher) EnqueueActividad(ctx context.Context, p ActividadPayload) error {
	return d.enqueue(ctx, QueueAuditoria, JobActividad, p)
}

// EnqueueEvaluarStock asks the alert worker to re-check thresholds.
func (d *Dispatcher) EnqueueEvaluarStock(ctx context.Context, p EvaluarStockPayload) error {
	return d.enqueue(ctx, QueueAlertas, JobEvaluarStock, p)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, p EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d.rdb == nil {
		return errNoRedis
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming all queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers Handlers) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, Queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, Job{Payload: json.RawMessage(raw)}, "malformed job")
		return
	}

	handler, ok := handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, rdb, queue, job, "unknown job type")
		return
	}

	job.Attempts++
	err := handler(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed")
	if job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, rdb, queue, job, err.Error())
		return
	}
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		SendToDLQ(ctx, rdb, queue, job, mErr.Error())
		return
	}
	if pErr := rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("failed to requeue job")
	}
}
