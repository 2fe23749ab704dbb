package extractor

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the Japanese instruction sent with the receipt
// image. The category vocabulary is embedded verbatim and quoted so the
// model picks from the closed list instead of inventing labels.
func BuildPrompt(categories []string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = fmt.Sprintf("%q", c)
	}

	var b strings.Builder
	b.WriteString("このレシート画像を解析して、以下の情報をJSON形式で抽出してください。\n")
	b.WriteString("【ルール】\n")
	b.WriteString("- 店名や品目から、リスト[")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString("]の中で最も適切なカテゴリを選んでください。\n")
	b.WriteString("- キーは \"date\", \"amount\", \"item\", \"category\"\n")
	b.WriteString("- \"date\" は YYYY-MM-DD 形式、\"amount\" は数値で出力してください。\n")
	b.WriteString("JSON以外の文字は不要です。\n")
	return b.String()
}
