// internal/adapter/registry.go
package adapter

import (
	"fmt"
	"sort"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 铸造后端工厂函数签名
// 入参：后端配置、链配置（直接上链的后端使用）、日志实例
// 出参：实现 ArtifactMinter 接口的后端实例
type Factory func(cfg *config.MinterConfig, chainCfg *config.ChainConfig, logger *logrus.Logger) (interfaces.ArtifactMinter, error)

// ========== 全局工厂函数注册表 ==========
var factoryRegistry = make(map[string]Factory)

// Register 供后端 init 函数调用，注册工厂函数
func Register(name string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("铸造后端%s的工厂函数不能为nil", name))
	}
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("铸造后端%s已注册，将覆盖原有实现", name)
	}
	factoryRegistry[name] = factory
}

// GetFactory 获取指定后端的工厂函数
func GetFactory(name string) (Factory, bool) {
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories 列出所有已注册的工厂函数（按名称排序）
func ListFactories() []string {
	names := make([]string, 0, len(factoryRegistry))
	for n := range factoryRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
