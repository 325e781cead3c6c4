package view

import (
	"sync/atomic"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Animation is a playing ambient animation. It must be released exactly once.
type Animation interface {
	// Asset is the animation document the page loads.
	Asset() string
	Release()
}

// AnimationHost acquires animations for weather categories.
type AnimationHost interface {
	Acquire(models.Category) (Animation, error)
}

const (
	clearAsset  = "https://assets2.lottiefiles.com/packages/lf20_yr6zz3wv.json"
	cloudsAsset = "https://assets6.lottiefiles.com/packages/lf20_jg8nwl3b.json"
	rainAsset   = "https://assets4.lottiefiles.com/packages/lf20_jmBauI.json"
	stormAsset  = "https://assets1.lottiefiles.com/packages/lf20_xa9f8o8k.json"
	snowAsset   = "https://assets9.lottiefiles.com/packages/lf20_i8ixb7pq.json"
	mistAsset   = "https://assets3.lottiefiles.com/packages/lf20_u4yrau.json"
)

// DefaultAssets maps each category to its Lottie animation document.
// Categories missing from the map fall back to the Clear animation.
var DefaultAssets = map[models.Category]string{
	models.CategoryClear:        clearAsset,
	models.CategoryClouds:       cloudsAsset,
	models.CategoryRain:         rainAsset,
	models.CategoryDrizzle:      rainAsset,
	models.CategoryThunderstorm: stormAsset,
	models.CategorySnow:         snowAsset,
	models.CategoryAtmosphere:   mistAsset,
}

// AssetHost resolves categories to static asset URLs and counts live handles.
type AssetHost struct {
	assets map[models.Category]string
	live   atomic.Int64
}

// NewAssetHost returns a host over assets; nil uses DefaultAssets.
func NewAssetHost(assets map[models.Category]string) *AssetHost {
	if assets == nil {
		assets = DefaultAssets
	}
	return &AssetHost{assets: assets}
}

// Acquire implements AnimationHost.
func (h *AssetHost) Acquire(c models.Category) (Animation, error) {
	url, ok := h.assets[c]
	if !ok {
		url = h.assets[models.CategoryClear]
	}
	h.live.Add(1)
	return &assetAnimation{host: h, url: url}, nil
}

// Live reports how many acquired animations have not been released.
func (h *AssetHost) Live() int64 {
	return h.live.Load()
}

type assetAnimation struct {
	host     *AssetHost
	url      string
	released atomic.Bool
}

func (a *assetAnimation) Asset() string { return a.url }

func (a *assetAnimation) Release() {
	if a.released.CompareAndSwap(false, true) {
		a.host.live.Add(-1)
	}
}
