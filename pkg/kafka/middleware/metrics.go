package kafka_middleware

import (
	"context"
	"time"

	"carpool/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	published       *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	consumed        *prometheus.CounterVec
	consumeDuration *prometheus.HistogramVec
}

// NewMetrics registers the Kafka collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpool",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Messages published to Kafka by topic and outcome.",
		}, []string{"topic", "status"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carpool",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Time spent publishing a message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpool",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Messages handled by consumers by topic and outcome.",
		}, []string{"topic", "status"}),
		consumeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carpool",
			Subsystem: "kafka",
			Name:      "consume_duration_seconds",
			Help:      "Time spent handling a consumed message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	reg.MustRegister(m.published, m.publishDuration, m.consumed, m.consumeDuration)
	return m
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.publishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		m.published.WithLabelValues(msg.Topic, status(err)).Inc()
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumeDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		m.consumed.WithLabelValues(msg.Topic, status(err)).Inc()
		return err
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
