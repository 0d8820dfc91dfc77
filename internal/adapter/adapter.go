package adapter

import (
	"fmt"
	"sort"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"

	"github.com/sirupsen/logrus"
)

type backend struct {
	minter   interfaces.ArtifactMinter
	template interfaces.MetadataTemplate
}

// MinterRegistry 按配置初始化的铸造后端实例
type MinterRegistry struct {
	defaultName string
	backends    map[string]backend
	logger      *logrus.Logger
}

// NewMinterRegistry 遍历配置中的后端，匹配工厂函数创建实例。单个后端失败不影响其它后端
func NewMinterRegistry(cfg *config.Config, logger *logrus.Logger) *MinterRegistry {
	r := &MinterRegistry{
		defaultName: cfg.Mint.DefaultBackend,
		backends:    make(map[string]backend),
		logger:      logger,
	}
	logger.WithField("factories", ListFactories()).Info("已注册的铸造后端工厂")

	for name, minterCfg := range cfg.Minters {
		mc := minterCfg
		factory, ok := GetFactory(name)
		if !ok {
			logger.WithField("backend", name).Error("未找到对应的工厂函数（init未注册？）")
			continue
		}
		m, err := factory(&mc, &cfg.Chain, logger)
		if err != nil {
			logger.WithError(err).WithField("backend", name).Error("铸造后端初始化失败")
			continue
		}
		r.Add(name, m, TemplateFromConfig(&mc))
		logger.WithField("backend", name).Info("铸造后端初始化成功并加入注册表")
	}
	return r
}

// NewStaticRegistry 直接用实例构建注册表
func NewStaticRegistry(defaultName string, logger *logrus.Logger) *MinterRegistry {
	return &MinterRegistry{defaultName: defaultName, backends: make(map[string]backend), logger: logger}
}

// Add 注册后端实例
func (r *MinterRegistry) Add(name string, m interfaces.ArtifactMinter, tpl interfaces.MetadataTemplate) {
	r.backends[name] = backend{minter: m, template: tpl}
}

// TemplateFromConfig 后端配置中的元数据模板
func TemplateFromConfig(cfg *config.MinterConfig) interfaces.MetadataTemplate {
	symbol := cfg.Symbol
	if symbol == "" {
		symbol = "CHOP"
	}
	return interfaces.MetadataTemplate{
		NamePrefix:  symbol,
		Symbol:      symbol,
		Description: cfg.Description,
		ImageBase:   cfg.ImageBase,
		ExternalURL: cfg.ExternalURL,
	}
}

// Resolve 按名称获取后端，名称为空时使用默认后端
func (r *MinterRegistry) Resolve(name string) (interfaces.ArtifactMinter, interfaces.MetadataTemplate, error) {
	if name == "" {
		name = r.defaultName
	}
	b, ok := r.backends[name]
	if !ok {
		return nil, interfaces.MetadataTemplate{}, fmt.Errorf("铸造后端%s未初始化（已初始化：%v）", name, r.Names())
	}
	return b.minter, b.template, nil
}

// StatusChecker 后端若支持状态查询则返回
func (r *MinterRegistry) StatusChecker(name string) (interfaces.ArtifactStatusChecker, error) {
	m, _, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	sc, ok := m.(interfaces.ArtifactStatusChecker)
	if !ok {
		return nil, fmt.Errorf("铸造后端%s不支持状态查询", m.GetName())
	}
	return sc, nil
}

// Names 已初始化的后端名称
func (r *MinterRegistry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
