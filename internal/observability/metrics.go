package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsocial_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// Signups counts signup attempts by outcome.
	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsocial_signups_total",
		Help: "Signup attempts by outcome",
	}, []string{"outcome"})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsocial_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsocial_posts_created_total",
		Help: "Total number of posts created",
	})

	// HeartToggles counts heart toggles by resulting action.
	HeartToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netsocial_heart_toggles_total",
		Help: "Heart toggles by action (added, removed)",
	}, []string{"action"})

	// IDCollisions counts generated post ids that were already taken.
	IDCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsocial_post_id_collisions_total",
		Help: "Generated post identifiers that collided with an existing post",
	})

	// FeedBroadcastDrops counts live feed messages dropped for slow clients.
	FeedBroadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netsocial_feed_broadcast_drops_total",
		Help: "Live feed messages dropped because a client buffer was full",
	})
)
