package metrics

import "github.com/prometheus/client_golang/prometheus"

var BuildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "mm_diagnosis_build_info",
	Help: "Build and config versions of the running server",
}, []string{"version", "environment", "bands_version", "weights_version"})

func Init(version, env, bandsVersion, weightsVersion string) {
	prometheus.MustRegister(BuildInfo)
	BuildInfo.WithLabelValues(version, env, bandsVersion, weightsVersion).Set(1)
}
