package csrf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "palmistry_csrf_rejections_total",
		Help: "Total number of requests rejected by the CSRF guard",
	},
	[]string{"reason"},
)
