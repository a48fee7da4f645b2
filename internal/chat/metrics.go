package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently authenticated sessions",
	})

	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_rooms",
		Help: "Number of rooms created since startup",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total protocol events processed by type",
	}, []string{"type"})

	BroadcastFanout = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_broadcast_fanout",
		Help:    "Recipients per room broadcast",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(ActiveRooms)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(BroadcastFanout)
}
