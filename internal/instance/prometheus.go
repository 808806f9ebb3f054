package instance

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus interface {
	Registry() *prometheus.Registry
	Register(r prometheus.Registerer)

	StartRequest() func(success bool)

	LoadImage() func()
	ResizeImage() func()
	EncodeImage() func()

	TotalBytesEmitted(int)
}
