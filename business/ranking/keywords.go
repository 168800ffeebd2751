package ranking

import "strings"

// Listing titles are mostly Japanese; English terms catch import listings.
var postureKeywords = map[string][]string{
	"side":    {"横向き", "横寝", "サイド", "side sleep", "side-sleep"},
	"back":    {"仰向け", "あおむけ", "頸椎", "ネックサポート", "back sleep", "cervical"},
	"stomach": {"うつ伏せ", "うつぶせ", "低め", "薄型", "stomach", "low profile"},
	"mixed":   {"寝返り", "高さ調整", "高さ調節", "調整可能", "adjustable"},
}

var concernKeywords = map[string][]string{
	"neck_pain":      {"首", "ストレートネック", "頸椎", "neck"},
	"shoulder_pain":  {"肩", "shoulder"},
	"stiff_shoulder": {"肩こり", "肩コリ", "肩凝り", "stiff"},
	"headache":       {"頭痛", "headache"},
	"snoring":        {"いびき", "イビキ", "気道", "snor"},
	"overheating":    {"冷感", "ひんやり", "通気", "メッシュ", "接触冷感", "cool", "breathable"},
}

var materialKeywords = map[string][]string{
	"memory_foam":     {"低反発", "ウレタン", "memory foam"},
	"latex":           {"ラテックス", "latex"},
	"pipe":            {"パイプ", "pipe"},
	"feather":         {"羽毛", "フェザー", "ダウン", "feather", "down"},
	"buckwheat":       {"そば殻", "そばがら", "ソバ殻", "buckwheat"},
	"polyester":       {"ポリエステル", "わた", "polyester"},
	"high_resilience": {"高反発", "high resilience"},
}

var concernLabels = map[string]string{
	"neck_pain":      "neck pain",
	"shoulder_pain":  "shoulder pain",
	"stiff_shoulder": "stiff shoulders",
	"headache":       "headaches",
	"snoring":        "snoring",
	"overheating":    "sleeping hot",
}

var postureLabels = map[string]string{
	"side":    "side sleeping",
	"back":    "back sleeping",
	"stomach": "stomach sleeping",
	"mixed":   "changing positions",
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func label(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return strings.ReplaceAll(key, "_", " ")
}
