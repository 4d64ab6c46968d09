// Package forwarder implements the forwarding dispatcher: it matches
// inbound messages against active tasks, runs filtering, queues
// accepted messages, and delivers them to each destination.
package forwarder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

const (
	// dedupCap bounds the per-task window of already-handled source
	// message ids; when full, the oldest dedupDrop entries are evicted.
	dedupCap  = 1000
	dedupDrop = 200

	queuePollInterval = 100 * time.Millisecond
)

// TaskSource lists the active tasks the dispatcher routes by.
type TaskSource interface {
	ListActiveTasks(ctx context.Context) ([]model.Task, error)
}

// DeliveryLog records completed deliveries.
type DeliveryLog interface {
	RecordDelivery(ctx context.Context, rec *model.DeliveryRecord) error
}

// Evaluator decides whether a message passes a task's filters. Note
// advances the engine's sender history; the dispatcher calls it once
// per inbound message after every matching task has evaluated, so the
// tasks' decisions stay independent of each other.
type Evaluator interface {
	Evaluate(ctx context.Context, msg *model.Message, cfg model.FilterConfig) (bool, string)
	Note(msg *model.Message)
}

// Transformer produces the copy-mode content for a message.
type Transformer func(text string, p model.TextProcessing, adv model.Advanced) (string, SendOptions)

// job is one accepted (task, message) pair awaiting delivery.
type job struct {
	id   string
	task model.Task
	msg  model.Message
}

// dedupWindow tracks recently handled source message ids for one task.
type dedupWindow struct {
	order []int
	set   map[int]struct{}
}

func (w *dedupWindow) seen(id int) bool {
	_, ok := w.set[id]
	return ok
}

func (w *dedupWindow) add(id int) {
	if w.set == nil {
		w.set = make(map[int]struct{})
	}
	w.set[id] = struct{}{}
	w.order = append(w.order, id)
	if len(w.order) > dedupCap {
		for _, old := range w.order[:dedupDrop] {
			delete(w.set, old)
		}
		w.order = append(w.order[:0], w.order[dedupDrop:]...)
	}
}

// Dispatcher routes inbound messages through filtering into a delivery
// queue served by a single worker goroutine. The task index is swapped
// wholesale on Reload; lookups take the read lock only.
type Dispatcher struct {
	tasks      TaskSource
	deliveries DeliveryLog
	engine     Evaluator
	client     Client
	transform  Transformer
	log        *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	index map[int64][]model.Task

	queueMu sync.Mutex
	queue   []job

	dedupMu sync.Mutex
	dedup   map[int64]*dedupWindow

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Dispatcher. Call Reload to populate the task index and
// Start to launch the delivery worker.
func New(tasks TaskSource, deliveries DeliveryLog, engine Evaluator, client Client, transform Transformer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:      tasks,
		deliveries: deliveries,
		engine:     engine,
		client:     client,
		transform:  transform,
		log:        log,
		now:        time.Now,
		sleep:      sleepCtx,
		index:      make(map[int64][]model.Task),
		dedup:      make(map[int64]*dedupWindow),
		stop:       make(chan struct{}),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reload rebuilds the source-chat index from the task source. On error
// the previous index stays in place.
func (d *Dispatcher) Reload(ctx context.Context) error {
	tasks, err := d.tasks.ListActiveTasks(ctx)
	if err != nil {
		d.log.Error("task reload failed, keeping previous index", "error", err)
		return fmt.Errorf("list active tasks: %w", err)
	}

	index := make(map[int64][]model.Task, len(tasks))
	for _, t := range tasks {
		index[t.SourceChatID] = append(index[t.SourceChatID], t)
	}

	d.mu.Lock()
	d.index = index
	d.mu.Unlock()

	d.log.Info("task index reloaded", "tasks", len(tasks), "sources", len(index))
	return nil
}

// Start launches the delivery worker. The worker runs until the context
// is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.worker(ctx)
}

// Stop signals the worker and waits for it to drain the current job.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// OnInboundMessage routes one message from a monitored chat: every
// active task watching that chat gets an independent filtering decision
// and, if accepted, its own queued delivery.
func (d *Dispatcher) OnInboundMessage(ctx context.Context, msg *model.Message) {
	d.mu.RLock()
	tasks := d.index[msg.ChatID]
	d.mu.RUnlock()
	if len(tasks) == 0 {
		return
	}

	now := d.now()
	for _, task := range tasks {
		log := d.log.With("task_id", task.ID, "chat_id", msg.ChatID, "message_id", msg.ID)

		if !task.Settings.WorkingHours.Contains(now) {
			log.Debug("message outside task working hours")
			continue
		}

		accepted, reason := d.engine.Evaluate(ctx, msg, task.Filters)
		if !accepted {
			log.Info("message rejected by filters", "reason", reason)
			continue
		}

		// Only accepted messages occupy a dedup slot, so a rejection by
		// a transient filter does not suppress a later redelivery.
		if d.alreadyHandled(task.ID, msg.ID) {
			log.Debug("duplicate message id, skipping")
			continue
		}

		d.enqueue(job{id: uuid.NewString(), task: task, msg: *msg})
		log.Info("message queued for delivery", "targets", len(task.TargetChatIDs))
	}
	d.engine.Note(msg)
}

// alreadyHandled checks and marks the source message id in the task's
// dedup window.
func (d *Dispatcher) alreadyHandled(taskID int64, messageID int) bool {
	d.dedupMu.Lock()
	defer d.dedupMu.Unlock()

	w := d.dedup[taskID]
	if w == nil {
		w = &dedupWindow{}
		d.dedup[taskID] = w
	}
	if w.seen(messageID) {
		return true
	}
	w.add(messageID)
	return false
}

func (d *Dispatcher) enqueue(j job) {
	d.queueMu.Lock()
	d.queue = append(d.queue, j)
	d.queueMu.Unlock()
}

func (d *Dispatcher) dequeue() (job, bool) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	if len(d.queue) == 0 {
		return job{}, false
	}
	j := d.queue[0]
	d.queue = d.queue[1:]
	return j, true
}

// QueueLen reports the number of jobs awaiting delivery.
func (d *Dispatcher) QueueLen() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.queue)
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		j, ok := d.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			case <-time.After(queuePollInterval):
			}
			continue
		}
		d.process(ctx, j)

		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		default:
		}
	}
}

// process delivers one job to all its destinations. A panic in delivery
// is contained to the job.
func (d *Dispatcher) process(ctx context.Context, j job) {
	log := d.log.With("job_id", j.id, "task_id", j.task.ID, "message_id", j.msg.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("delivery panic", "panic", r)
		}
	}()

	if delay := j.task.Settings.DelaySeconds; delay > 0 {
		if err := d.sleep(ctx, time.Duration(delay)*time.Second); err != nil {
			log.Info("delivery cancelled during delay")
			return
		}
	}

	// Copy-mode content is produced once per job, not per destination.
	var text string
	var opts SendOptions
	if j.task.Mode == model.ModeCopy {
		text, opts = d.transform(j.msg.Content(), j.task.Settings.TextProcessing, j.task.Settings.Advanced)
		opts.DisableWebPreview = j.task.Settings.DisableWebPreview
		if j.task.Settings.Advanced.ReplyToOriginal {
			opts.ReplyTo = j.msg.ID
		}
	}

	delivered := make(map[int64]int, len(j.task.TargetChatIDs))
	failed := 0
	for _, dst := range j.task.TargetChatIDs {
		msgID, err := d.deliverOne(ctx, j, dst, text, opts)
		if err != nil {
			failed++
			log.Error("delivery to destination failed",
				"destination", dst, "failure", classifyFailure(err), "error", err)
			continue
		}
		delivered[dst] = msgID

		if j.task.Settings.Advanced.PinMessages {
			if err := d.client.PinMessage(ctx, dst, msgID); err != nil {
				log.Warn("pin failed", "destination", dst, "error", err)
			}
		}
	}

	log.Info("delivery finished", "delivered", len(delivered), "failed", failed)
	if len(delivered) == 0 {
		return
	}

	rec := &model.DeliveryRecord{
		TaskID:          j.task.ID,
		SourceMessageID: j.msg.ID,
		Delivered:       delivered,
	}
	if err := d.deliveries.RecordDelivery(ctx, rec); err != nil {
		log.Error("recording delivery failed", "error", err)
	}
}

func (d *Dispatcher) deliverOne(ctx context.Context, j job, dst int64, text string, opts SendOptions) (int, error) {
	if j.task.Mode == model.ModeForward {
		return d.client.ForwardMessage(ctx, dst, j.msg.ChatID, j.msg.ID)
	}

	switch j.msg.Kind {
	case model.KindText:
		return d.client.SendText(ctx, dst, text, opts)
	case model.KindPhoto, model.KindVideo, model.KindAudio, model.KindVoice,
		model.KindDocument, model.KindSticker, model.KindAnimation:
		return d.client.SendMedia(ctx, dst, j.msg.Kind, j.msg.FileID, text, opts)
	case model.KindLocation:
		if j.msg.Location == nil {
			return 0, fmt.Errorf("location message %d without coordinates", j.msg.ID)
		}
		return d.client.SendLocation(ctx, dst, j.msg.Location.Latitude, j.msg.Location.Longitude, opts)
	case model.KindContact:
		if j.msg.Contact == nil {
			return 0, fmt.Errorf("contact message %d without contact", j.msg.ID)
		}
		c := j.msg.Contact
		return d.client.SendContact(ctx, dst, c.PhoneNumber, c.FirstName, c.LastName, opts)
	default:
		// Polls and other kinds cannot be re-sent as copies.
		return d.client.ForwardMessage(ctx, dst, j.msg.ChatID, j.msg.ID)
	}
}
