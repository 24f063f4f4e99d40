package services

import "github.com/prometheus/client_golang/prometheus"

var friendshipTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "friendship_transitions_total",
		Help: "Friendship state transitions by kind.",
	},
	[]string{"transition"},
)

func init() {
	prometheus.MustRegister(friendshipTransitions)
}

func countTransition(name string) {
	friendshipTransitions.WithLabelValues(name).Inc()
}
