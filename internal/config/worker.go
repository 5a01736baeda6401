package config

import (
	"time"

	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	OrderConsumer string
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("worker.group", "mail-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")
	v.SetDefault("worker.orderconsumer", "order-mailer")
}
