package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"studymate/internal/model"
)

type DocumentLoader interface {
	GetByID(ctx context.Context, id uint) (*model.Document, error)
}

type DocumentIndexer interface {
	Index(ctx context.Context, documentID uint, content string)
}

// NewIndexJob stamps a job for documentID.
func NewIndexJob(documentID uint) model.IndexJob {
	return model.IndexJob{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		EnqueuedAt: time.Now(),
	}
}

// RunIndexJob loads the document and indexes it. A document deleted since
// the job was queued is skipped.
func RunIndexJob(ctx context.Context, docs DocumentLoader, indexer DocumentIndexer, job model.IndexJob) error {
	doc, err := docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %d for job %s failed: %w", job.DocumentID, job.ID, err)
	}
	if doc == nil {
		log.Printf("index job %s: document %d no longer exists", job.ID, job.DocumentID)
		return nil
	}
	started := time.Now()
	indexer.Index(ctx, doc.ID, doc.Content)
	log.Printf("index job %s: document %d done in %s", job.ID, doc.ID, time.Since(started).Round(time.Millisecond))
	return nil
}

// IndexWorker consumes index jobs from RabbitMQ.
type IndexWorker struct {
	consumer
}

func NewIndexWorker(conn *amqp.Connection, docs DocumentLoader, indexer DocumentIndexer, queueName string) *IndexWorker {
	return &IndexWorker{consumer{
		name:      "index worker",
		conn:      conn,
		queueName: queueName,
		handle: func(ctx context.Context, body []byte) error {
			var job model.IndexJob
			if err := json.Unmarshal(body, &job); err != nil {
				return fmt.Errorf("decode index job failed: %w", err)
			}
			return RunIndexJob(ctx, docs, indexer, job)
		},
	}}
}

type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// QueueDispatcher hands index jobs to RabbitMQ.
type QueueDispatcher struct {
	publisher Publisher
}

func NewQueueDispatcher(publisher Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, documentID uint) error {
	return d.publisher.Publish(ctx, NewIndexJob(documentID))
}

// LocalDispatcher indexes in background goroutines of this process. Jobs
// outlive the request that dispatched them; Close waits for them.
type LocalDispatcher struct {
	docs    DocumentLoader
	indexer DocumentIndexer

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
}

func NewLocalDispatcher(docs DocumentLoader, indexer DocumentIndexer) *LocalDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalDispatcher{
		docs:    docs,
		indexer: indexer,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (d *LocalDispatcher) Dispatch(_ context.Context, documentID uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx.Err() != nil {
		return fmt.Errorf("local dispatcher closed")
	}
	job := NewIndexJob(documentID)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := RunIndexJob(d.ctx, d.docs, d.indexer, job); err != nil {
			log.Printf("index job %s: %v", job.ID, err)
		}
	}()
	return nil
}

// Wait blocks until every dispatched job has finished.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

func (d *LocalDispatcher) Close() {
	d.mu.Lock()
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}
