package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallet-client/internal/api"
	"wallet-client/internal/session"
	"wallet-client/internal/store"
	"wallet-client/pkg/config"
	"wallet-client/pkg/keystore"
	"wallet-client/pkg/logger"
	"wallet-client/pkg/monitor"
)

var (
	cfgFile     string
	showMetrics bool

	app *walletApp
)

// walletApp 每次命令执行时组装的依赖
type walletApp struct {
	sess    *session.Session
	backend store.Backend
	reg     *prometheus.Registry
}

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "多链钱包命令行客户端",
	Long: `连接远程钱包服务的命令行客户端。
支持注册/登录/导入钱包、切换网络、查询余额、发送原生币和 ERC-20 代币以及 2FA 管理。
会话 (token、钱包、所选网络) 保存在本地偏好存储中，重启后自动恢复。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	teardown()
	stop()
	if err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认 ./config.yaml 或 ~/.wallet-cli/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "结束时输出后端调用统计")
}

func setup(ctx context.Context) error {
	// 0. 初始化 Config
	if err := config.Init(cfgFile); err != nil {
		return err
	}

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env, config.Global.App.LogLevel)

	// 2. 本地偏好存储
	backend, err := store.Open(ctx, config.Global)
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	prefOpts := []store.Option{store.WithLogger(logger.Named("store"))}
	if p := config.Global.Store.Passphrase; p != "" {
		prefOpts = append(prefOpts, store.WithPassphrase(p, keystore.StandardScrypt))
	}
	prefs := store.NewPreferences(backend, prefOpts...)

	// 3. 远程钱包服务
	reg := prometheus.NewRegistry()
	client := api.New(config.Global.Backend.BaseURL,
		api.WithTimeout(config.Global.Backend.Timeout),
		api.WithLogger(logger.Named("api")),
		api.WithMetrics(monitor.NewClientMetrics(reg)),
	)

	// 4. 会话
	sess := session.New(client, prefs,
		session.WithLogger(logger.Named("session")),
		session.WithStaticFees(config.Global.Fees.Static),
	)
	if err := sess.Restore(ctx); err != nil {
		if errors.Is(err, store.ErrLocked) {
			fmt.Fprintln(os.Stderr, "⚠️ ", store.ErrLocked)
		}
		logger.Warn("session restored partially", zap.Error(err))
	}

	app = &walletApp{sess: sess, backend: backend, reg: reg}
	return nil
}

func teardown() {
	if app != nil {
		if showMetrics {
			printMetrics(app.reg)
		}
		if c, ok := app.backend.(io.Closer); ok {
			_ = c.Close()
		}
	}
	logger.Sync()
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics", zap.Error(err))
		return
	}
	fmt.Println("---------------------------------------------------")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s%s %.0f\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Printf("%s%s count=%d sum=%.3fs\n", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}
