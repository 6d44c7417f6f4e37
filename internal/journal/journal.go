// Package journal persists order and fill activity to Postgres. It is
// best-effort by design: records are queued to a worker and dropped
// with a log line when the queue is full, so persistence can never
// stall the trading loop. Close flushes whatever is still queued.
package journal

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"main/internal/model"
	"main/pkg/conn"
)

const (
	_writeTimeout = 5 * time.Second
	_flushTimeout = 5 * time.Second
)

// OrderRecord is one order lifecycle event.
type OrderRecord struct {
	ID         uint   `gorm:"primaryKey"`
	ClientID   string `gorm:"index"`
	ExchangeID int64
	Symbol     string
	Side       string
	Price      string
	Quantity   string
	Status     string
	Signal     string
	CreatedAt  time.Time
}

func (OrderRecord) TableName() string { return "order_records" }

// FillRecord is one confirmed trade applied to the position.
type FillRecord struct {
	ID        uint `gorm:"primaryKey"`
	Symbol    string
	Price     string
	Quantity  string
	MakerSell bool
	Position  string
	CreatedAt time.Time
}

func (FillRecord) TableName() string { return "fill_records" }

// Journal writes records asynchronously through a single worker.
type Journal struct {
	db            *gorm.DB
	symbol        string
	priceScale    int
	quantityScale int

	queue chan any
	stop  chan struct{}
	done  chan struct{}

	write func(record any)
}

// New migrates the schema and returns a journal bound to one symbol.
func New(client *conn.Client, symbol string, priceScale, quantityScale int) (*Journal, error) {
	db := client.DB()
	if err := db.AutoMigrate(&OrderRecord{}, &FillRecord{}); err != nil {
		return nil, err
	}
	j := &Journal{
		db:            db,
		symbol:        symbol,
		priceScale:    priceScale,
		quantityScale: quantityScale,
		queue:         make(chan any, 1024),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	j.write = j.writeRecord
	return j, nil
}

// Run drains the queue until the context is done or Close is called,
// then flushes the remaining queued records before exiting.
func (j *Journal) Run(ctx context.Context) {
	defer close(j.done)
	for {
		select {
		case <-ctx.Done():
			j.flush()
			return
		case <-j.stop:
			j.flush()
			return
		case record := <-j.queue:
			j.write(record)
		}
	}
}

// Close stops the worker, waits for it to exit, and flushes anything
// enqueued after the worker already returned. Call once, after the
// last producer has stopped.
func (j *Journal) Close() {
	close(j.stop)
	<-j.done
	j.flush()
}

// flush writes the queued backlog, bounded by a timeout so a dead
// database cannot hold up shutdown.
func (j *Journal) flush() {
	deadline := time.Now().Add(_flushTimeout)
	for {
		select {
		case record := <-j.queue:
			if time.Now().After(deadline) {
				logs.Errorf("journal flush timed out, dropping %d records", len(j.queue)+1)
				return
			}
			j.write(record)
		default:
			return
		}
	}
}

// writeRecord uses its own bounded context so an in-progress write
// survives the engine's shutdown cancellation.
func (j *Journal) writeRecord(record any) {
	ctx, cancel := context.WithTimeout(context.Background(), _writeTimeout)
	defer cancel()
	if err := j.db.WithContext(ctx).Create(record).Error; err != nil {
		logs.Errorf("journal write failed, err: %+v", err)
	}
}

// RecordOrder enqueues an order lifecycle event.
func (j *Journal) RecordOrder(order model.Order) {
	j.enqueue(&OrderRecord{
		ClientID:   order.ClientID,
		ExchangeID: order.ExchangeID,
		Symbol:     order.Symbol,
		Side:       order.Side.Wire(),
		Price:      order.Price.String(j.priceScale),
		Quantity:   order.Quantity.String(j.quantityScale),
		Status:     order.Status.String(),
		Signal:     order.Signal.String(),
		CreatedAt:  order.CreatedAt,
	})
}

// RecordFill enqueues a confirmed trade and the resulting position.
func (j *Journal) RecordFill(price model.Price, qty model.Quantity, makerSell bool, position model.Quantity) {
	j.enqueue(&FillRecord{
		Symbol:    j.symbol,
		Price:     price.String(j.priceScale),
		Quantity:  qty.String(j.quantityScale),
		MakerSell: makerSell,
		Position:  position.String(j.quantityScale),
		CreatedAt: time.Now(),
	})
}

func (j *Journal) enqueue(record any) {
	select {
	case j.queue <- record:
	default:
		logs.Errorf("journal queue full, dropping record")
	}
}
