package loyalty

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loyalty",
		Name:      "token_refresh_total",
		Help:      "Logins performed to replace the cached API token, by the state of the replaced token.",
	}, []string{"reason"})

	customerResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loyalty",
		Name:      "customer_results_total",
		Help:      "AddCustomer outcomes by result status.",
	}, []string{"status"})
)
