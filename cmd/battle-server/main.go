package main

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/liangdas/mqant"
	"github.com/liangdas/mqant/module"
	"github.com/liangdas/mqant/registry"
	"github.com/liangdas/mqant/registry/consul"
	"github.com/nats-io/nats.go"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/notify"
)

// bootstrap 进程级地址，模块自身的配置在 mqant settings 与 BATTLE_* 环境变量里
type bootstrap struct {
	ConsulAddr string `env:"CONSUL_ADDRESS" envDefault:"localhost:8500"`
	NatsAddr   string `env:"NATS_ADDRESS" envDefault:"localhost:4222"`
	ConfigPath string `env:"BATTLE_SERVER_CONFIG" envDefault:"./configs/server/battle-server.json"`
}

func main() {
	fmt.Println("==============================================")
	fmt.Println("  Uglynos Battle Server")
	fmt.Println("==============================================")

	boot, err := env.ParseAs[bootstrap]()
	if err != nil {
		fmt.Printf("[Main] 解析启动参数失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[Main] consul=%s nats=%s config=%s\n", boot.ConsulAddr, boot.NatsAddr, boot.ConfigPath)

	nc, err := connectNATS(boot.NatsAddr)
	if err != nil {
		fmt.Printf("[Main] NATS 连接失败: %v\n", err)
		os.Exit(1)
	}
	// mqant RPC 与房间事件广播共用这条连接
	notify.SetNatsConn(nc)

	rs := consul.NewRegistry(func(o *registry.Options) {
		o.Addrs = []string{boot.ConsulAddr}
	})

	app := mqant.CreateApp(
		module.Configure(boot.ConfigPath),
		module.Debug(false),
		module.Nats(nc),
		module.Registry(rs),
	)
	app.Run(battle.Module())
}

func connectNATS(addr string) (*nats.Conn, error) {
	return nats.Connect("nats://"+addr,
		nats.Name("battle-server"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				fmt.Printf("[Main] NATS 断开: %v\n", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			fmt.Printf("[Main] NATS 已重连 %s\n", c.ConnectedUrl())
		}),
	)
}
