package gallery

import (
	"fmt"
	"math"
	"strings"

	"github.com/nao1215/visor360/internal/store"
)

// MaxSuggestions は距離検索で返す候補の最大数。
const MaxSuggestions = 30

// FormatDistance はキロ単位の距離を道路のキロポスト表記（"12+345"）に変換する。
// 負の距離は先頭に "-" を付ける。
func FormatDistance(km float64) string {
	sign := ""
	if km < 0 {
		sign = "-"
		km = -km
	}
	meters := int64(math.Round(km * 1000))
	return fmt.Sprintf("%s%d+%03d", sign, meters/1000, meters%1000)
}

// SearchPoints は開始キロポストを加えた距離表記に検索語を含むGPSポイントを返す。
// 検索語は前後の空白を除いて小文字で比較し、先頭からlimit件までを返す。
func SearchPoints(points []store.GpsPoint, startKm float64, query string, limit int) []store.GpsPoint {
	query = strings.ToLower(strings.TrimSpace(query))
	if limit <= 0 {
		limit = MaxSuggestions
	}

	results := make([]store.GpsPoint, 0, min(limit, len(points)))
	for _, p := range points {
		if len(results) == limit {
			break
		}
		if strings.Contains(strings.ToLower(FormatDistance(startKm+p.TotalDistance)), query) {
			results = append(results, p)
		}
	}
	return results
}

// StartKm はファイルの開始キロポストを返す。未設定の場合は0。
func StartKm(f store.File) float64 {
	if f.StartPlace == nil {
		return 0
	}
	return *f.StartPlace
}

// Suggestion は検索候補の表示用データ。
type Suggestion struct {
	// Label はキロポスト表記の距離。
	Label string `json:"label"`
	// Second は候補を選択した際に移動する動画の再生位置。
	Second float64 `json:"second"`
	// Point は元のGPSポイント。
	Point store.GpsPoint `json:"point"`
}

// Suggest はSearchPointsの結果を表示用の候補に変換する。
func Suggest(points []store.GpsPoint, startKm float64, query string) []Suggestion {
	found := SearchPoints(points, startKm, query, MaxSuggestions)
	out := make([]Suggestion, 0, len(found))
	for _, p := range found {
		out = append(out, Suggestion{
			Label:  FormatDistance(startKm + p.TotalDistance),
			Second: p.Second,
			Point:  p,
		})
	}
	return out
}

// PointAt は再生位置secondの時点のGPSポイントを返す。
// pointsは秒順に並んでいる必要がある。second以前のポイントが無い場合は先頭を返す。
func PointAt(points []store.GpsPoint, second float64) (store.GpsPoint, bool) {
	if len(points) == 0 {
		return store.GpsPoint{}, false
	}
	cur := points[0]
	for _, p := range points[1:] {
		if p.Second > second {
			break
		}
		cur = p
	}
	return cur, true
}
