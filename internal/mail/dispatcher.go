package mail

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/models"
)

type job struct {
	to       string
	subject  string
	template string
	data     any
}

// Dispatcher delivers transactional email on a small worker pool. Delivery
// is best effort: a full queue or a send failure is logged and dropped, it
// never reaches the caller.
type Dispatcher struct {
	sender *Sender
	logger *zap.Logger
	jobs   chan job
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(sender *Sender, logger *zap.Logger, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender: sender,
		logger: logger,
		jobs:   make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		if err := d.sender.Send(j.to, j.subject, j.template, j.data); err != nil {
			d.logger.Error("email not sent",
				zap.String("to", j.to),
				zap.String("template", j.template),
				zap.Error(err))
			continue
		}
		d.logger.Info("email sent",
			zap.String("to", j.to),
			zap.String("template", j.template))
	}
}

// Close drains the queue and stops the workers. Messages enqueued after
// Close are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping message",
			zap.String("to", j.to),
			zap.String("template", j.template))
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.logger.Warn("email queue full, dropping message",
			zap.String("to", j.to),
			zap.String("template", j.template))
	}
}

// ItemAdded notifies the user that an item went into their cart.
func (d *Dispatcher) ItemAdded(user *models.User, item *models.Item, quantity int) {
	d.enqueue(job{
		to:       user.Email,
		subject:  fmt.Sprintf("Added %s to cart", item.Title),
		template: "add_to_cart.html",
		data: map[string]any{
			"User":     user,
			"Item":     item,
			"Quantity": quantity,
			"CartLink": d.sender.cfg.SiteURL + "/cart",
		},
	})
}

// PaymentDone notifies the user that their cart was paid.
func (d *Dispatcher) PaymentDone(user *models.User, invoice *models.Invoice, finalPrice decimal.Decimal) {
	d.enqueue(job{
		to:       user.Email,
		subject:  "Payment is done!",
		template: "payment_done.html",
		data: map[string]any{
			"User":       user,
			"Invoice":    invoice,
			"FinalPrice": finalPrice,
			"SiteURL":    d.sender.cfg.SiteURL,
		},
	})
}
