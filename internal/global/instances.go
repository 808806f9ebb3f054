package global

import "imgsizer/internal/instance"

type Instances struct {
	Prometheus instance.Prometheus
}
