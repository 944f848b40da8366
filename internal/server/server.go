// Package server assembles the carpool API from configuration: storage
// backend, session store, event delivery and the HTTP stack.
package server

import (
	"time"

	authpkg "carpool/internal/auth"
	authhandler "carpool/internal/auth/handler"
	authrepo "carpool/internal/auth/repository"
	authservice "carpool/internal/auth/service"
	"carpool/internal/auth/session"
	"carpool/internal/auth/token"
	bookinghandler "carpool/internal/bookings/handler"
	bookingrepo "carpool/internal/bookings/repository"
	bookingservice "carpool/internal/bookings/service"
	"carpool/internal/events"
	messagehandler "carpool/internal/messages/handler"
	messagerepo "carpool/internal/messages/repository"
	messageservice "carpool/internal/messages/service"
	notificationhandler "carpool/internal/notifications/handler"
	notificationrepo "carpool/internal/notifications/repository"
	notificationservice "carpool/internal/notifications/service"
	reviewhandler "carpool/internal/reviews/handler"
	reviewrepo "carpool/internal/reviews/repository"
	reviewservice "carpool/internal/reviews/service"
	triphandler "carpool/internal/trips/handler"
	triprepo "carpool/internal/trips/repository"
	tripservice "carpool/internal/trips/service"
	tripvalidator "carpool/internal/trips/validator"
	"carpool/pkg/app"
	"carpool/pkg/config"
	mongotx "carpool/pkg/db/mongo"
	"carpool/pkg/kafka"
	kafka_middleware "carpool/pkg/kafka/middleware"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ServiceName           = "carpool"
	sessionJanitorPeriod  = time.Minute
	eventSourceIdentifier = "carpool-api"
)

type repositories struct {
	trips         triprepo.TripRepository
	bookings      bookingrepo.BookingRepository
	users         authrepo.UserRepository
	messages      messagerepo.MessageRepository
	reviews       reviewrepo.ReviewRepository
	notifications notificationrepo.NotificationRepository
	locker        bookingrepo.TripLocker
	txManager     mongotx.TransactionManager
}

// Server is a wired API process. Services are exposed for tests.
type Server struct {
	App           *app.Application
	Registry      *prometheus.Registry
	Trips         tripservice.TripService
	Bookings      bookingservice.BookingService
	Auth          authservice.AuthService
	Notifications notificationservice.NotificationService
}

// New wires every component. Mongo and Redis clients must already be set on
// cfg.Client when the configuration asks for them.
func New(cfg *config.Config) (*Server, error) {
	log := cfg.Log
	registry := prometheus.NewRegistry()
	var onShutdown []func()

	repos := newRepositories(cfg)

	notifications := notificationservice.NewNotificationService(repos.notifications, log)

	var publisher events.Publisher
	if cfg.Kafka != nil && cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, cfg.EventsTopic, cfg.EventsDLQTopic, log)
		if err != nil {
			return nil, err
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
		producer.Use(kafka_middleware.NewMetrics(registry).ProducerMiddleware())
		publisher = events.NewKafkaPublisher(producer, eventSourceIdentifier)
		onShutdown = append(onShutdown, func() {
			if err := producer.Close(); err != nil {
				log.Error("Failed to close Kafka producer", "error", err)
			}
		})
		log.Info("Publishing events to Kafka", "topic", cfg.EventsTopic)
	} else {
		publisher = events.NewDispatcher(notifications)
		log.Info("Delivering events in process")
	}

	var sessions session.Store
	if cfg.Client != nil && cfg.Client.Redis != nil {
		sessions = session.NewRedisStore(cfg.Client.Redis)
		log.Info("Sessions stored in Redis")
	} else {
		memorySessions := session.NewMemoryStore(sessionJanitorPeriod)
		sessions = memorySessions
		onShutdown = append(onShutdown, memorySessions.Close)
	}

	trips := tripservice.NewTripService(repos.trips, tripvalidator.NewTripValidator(), publisher, log)
	bookings := bookingservice.NewBookingService(
		repos.bookings,
		trips,
		repos.locker,
		repos.txManager,
		publisher,
		bookingservice.NewMetrics(registry),
		log,
	)
	messages := messageservice.NewMessageService(repos.messages, bookings, publisher, log)
	reviews := reviewservice.NewReviewService(repos.reviews, bookings, log)
	auth := authservice.NewAuthService(
		repos.users,
		sessions,
		token.NewManager(cfg.SessionSecret, cfg.SessionTTL),
		cfg.BcryptCost,
		log,
	)

	application := app.NewApplication(cfg)
	opts := app.Options{
		Authenticate: authpkg.Authenticate(auth, cfg.SessionCookieName, log),
		ClientKey:    authpkg.CallerKey,
		Registry:     registry,
		OnShutdown:   onShutdown,
	}
	if cfg.Client != nil {
		opts.Ready = cfg.Client.Ping
	}
	application.SetApp(opts,
		authhandler.NewAuthHandler(auth, authhandler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
		}, log),
		triphandler.NewTripHandler(trips, log),
		bookinghandler.NewBookingHandler(bookings, log),
		messagehandler.NewMessageHandler(messages, log),
		reviewhandler.NewReviewHandler(reviews, log),
		notificationhandler.NewNotificationHandler(notifications, log),
	)

	log.Info("Carpool API initialized", "storage", cfg.StorageDriver)
	return &Server{
		App:           application,
		Registry:      registry,
		Trips:         trips,
		Bookings:      bookings,
		Auth:          auth,
		Notifications: notifications,
	}, nil
}

func newRepositories(cfg *config.Config) *repositories {
	if !cfg.UseMongo() {
		return &repositories{
			trips:         triprepo.NewMemoryTripRepository(),
			bookings:      bookingrepo.NewMemoryBookingRepository(),
			users:         authrepo.NewMemoryUserRepository(),
			messages:      messagerepo.NewMemoryMessageRepository(),
			reviews:       reviewrepo.NewMemoryReviewRepository(),
			notifications: notificationrepo.NewMemoryNotificationRepository(),
			locker:        bookingrepo.NewLocalTripLocker(),
			txManager:     mongotx.NewDirectTransactionManager(),
		}
	}

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &repositories{
		trips:         triprepo.NewMongoTripRepository(cfg, db),
		bookings:      bookingrepo.NewMongoBookingRepository(cfg, db),
		users:         authrepo.NewMongoUserRepository(cfg, db),
		messages:      messagerepo.NewMongoMessageRepository(cfg, db),
		reviews:       reviewrepo.NewMongoReviewRepository(cfg, db),
		notifications: notificationrepo.NewMongoNotificationRepository(cfg, db),
		locker:        bookingrepo.NewMongoTripLocker(db, cfg.Log),
		txManager:     mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.Log),
	}
}

// NewNotificationService builds the notification side alone, for the Kafka
// consumer process.
func NewNotificationService(cfg *config.Config) notificationservice.NotificationService {
	var repo notificationrepo.NotificationRepository
	if cfg.UseMongo() {
		repo = notificationrepo.NewMongoNotificationRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
	} else {
		repo = notificationrepo.NewMemoryNotificationRepository()
	}
	return notificationservice.NewNotificationService(repo, cfg.Log)
}
