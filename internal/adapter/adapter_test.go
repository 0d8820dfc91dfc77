package adapter

import (
	"context"
	"errors"
	"testing"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMinter struct{ name string }

func (s stubMinter) GetName() string        { return s.name }
func (s stubMinter) EstimatedCost() float64 { return 0 }
func (s stubMinter) CreateArtifact(context.Context, string, uint64, interfaces.ArtifactMetadata) (*interfaces.ArtifactReceipt, error) {
	return &interfaces.ArtifactReceipt{}, nil
}

func init() {
	Register("stub", func(cfg *config.MinterConfig, _ *config.ChainConfig, _ *logrus.Logger) (interfaces.ArtifactMinter, error) {
		return stubMinter{name: "stub"}, nil
	})
	Register("broken", func(*config.MinterConfig, *config.ChainConfig, *logrus.Logger) (interfaces.ArtifactMinter, error) {
		return nil, errors.New("missing authority keypair")
	})
}

func TestNewMinterRegistrySkipsFailingBackends(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		Mint: config.MintConfig{DefaultBackend: "stub"},
		Minters: map[string]config.MinterConfig{
			"stub":       {Symbol: "TIX", ImageBase: "https://img.example/t"},
			"broken":     {},
			"unregister": {},
		},
	}

	r := NewMinterRegistry(cfg, logger)
	assert.Equal(t, []string{"stub"}, r.Names())

	m, tpl, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "stub", m.GetName())
	assert.Equal(t, "TIX #7", tpl.For(7).Name)
	assert.Equal(t, "https://img.example/t?id=7", tpl.For(7).Image)

	_, _, err = r.Resolve("broken")
	assert.Error(t, err)

	_, err = r.StatusChecker("stub")
	assert.ErrorContains(t, err, "不支持状态查询")
}

func TestTemplateFromConfigDefaultsSymbol(t *testing.T) {
	tpl := TemplateFromConfig(&config.MinterConfig{})
	meta := tpl.For(101)
	assert.Equal(t, "CHOP #101", meta.Name)
	assert.Empty(t, meta.Image)
	require.Len(t, meta.Attributes, 2)
	assert.Equal(t, "Number", meta.Attributes[0].TraitType)
	assert.Equal(t, uint64(101), meta.Attributes[0].Value)
}

func TestListFactoriesSorted(t *testing.T) {
	names := ListFactories()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "stub")
	_, ok := GetFactory("stub")
	assert.True(t, ok)
}
