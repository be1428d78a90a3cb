package main

import (
	"flag"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"wallet-client/internal/devserver"
	"wallet-client/pkg/config"
	"wallet-client/pkg/logger"
)

// mock-backend serves every wallet endpoint from memory so the CLI can be
// exercised without the hosted backend.
func main() {
	cfgFile := flag.String("config", "", "config file (default ./config.yaml or ~/.wallet-cli/config.yaml)")
	flag.Parse()

	// 0. 初始化 Config
	if err := config.Init(*cfgFile); err != nil {
		panic(err)
	}

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
	defer logger.Sync()

	// 2. 监控指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := devserver.NewServer(devserver.Options{
		TwoFactorCode:   config.Global.Mock.TwoFactorCode,
		StartingBalance: config.Global.Mock.StartingBalance,
		GasPrice:        config.Global.Mock.GasPrice,
	}, reg)

	logger.Info("mock backend configured",
		zap.String("port", config.Global.Mock.HttpPort),
		zap.String("starting_balance", config.Global.Mock.StartingBalance),
	)

	devserver.NewApp(config.Global.Mock.HttpPort, srv.Engine).Run()
}
