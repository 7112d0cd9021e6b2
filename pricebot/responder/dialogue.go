package responder

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is one slot of the add-product form.
type Field string

const (
	FieldName    Field = "name"
	FieldAmount  Field = "amount"
	FieldPrice   Field = "price"
	FieldShop    Field = "shop"
	FieldBranch  Field = "shop_branch"
	FieldConfirm Field = "confirm"
)

// Fields lists the form slots in their default order.
var Fields = []Field{FieldName, FieldAmount, FieldPrice, FieldShop, FieldBranch, FieldConfirm}

// StateHasRefill is entered when a new name collides with a body/refill pair.
const StateHasRefill State = "has_refill"

// FieldPrompt pairs a form slot with the prompt shown while it is being filled.
type FieldPrompt struct {
	Field  Field
	Prompt string
}

// Replies holds the fixed texts responders answer with.
type Replies struct {
	Registered        string
	RegisterCancelled string
	LookupEnded       string
	NotFound          string
	// GuessPrompt heads an enumerated candidate list.
	GuessPrompt string
}

// Dialogue is the text and pattern table shared by all responders.
type Dialogue struct {
	// Prompts defines the form order. The confirm prompt takes five
	// operands: name, amount, price, shop, branch.
	Prompts []FieldPrompt
	// ConflictPrompt takes the product name as its only operand.
	ConflictPrompt string
	YesWords       []string
	NoWords        []string
	ListPattern    *regexp.Regexp
	BrowsePattern  *regexp.Regexp
	Replies        Replies
}

// DefaultDialogue returns the built-in Japanese dialogue.
func DefaultDialogue() *Dialogue {
	return &Dialogue{
		Prompts: []FieldPrompt{
			{FieldName, "商品名を入力してください。"},
			{FieldAmount, "内容量を数値で入力してください。"},
			{FieldPrice, "価格(円)を入力してください。"},
			{FieldShop, "店名を入力してください。"},
			{FieldBranch, "支店名を入力してください。"},
			{FieldConfirm, "以下の内容で登録しますか？(はい/いいえ)\n%v(%v): %v円 | %v %v"},
		},
		ConflictPrompt: "「%[1]v」には本体と詰替があります。本体なら0、詰替なら1を入力してください。",
		YesWords:       []string{"yes", "y", "はい"},
		NoWords:        []string{"no", "n", "いいえ"},
		ListPattern:    regexp.MustCompile(`^(一覧|いちらん|list)$`),
		BrowsePattern:  regexp.MustCompile(`^(探す|さがす|browse)$`),
		Replies: Replies{
			Registered:        "登録しました。",
			RegisterCancelled: "登録を取り消しました。",
			LookupEnded:       "検索を終了しました。",
			NotFound:          "見つかりませんでした。表記や登録を確認してください。",
			GuessPrompt:       "番号を選んでください。",
		},
	}
}

// Validate checks that every form slot has exactly one prompt.
func (d *Dialogue) Validate() error {
	seen := make(map[Field]bool, len(d.Prompts))
	for _, p := range d.Prompts {
		if !knownField(p.Field) {
			return fmt.Errorf("unknown form field %q", p.Field)
		}
		if seen[p.Field] {
			return fmt.Errorf("duplicate prompt for field %q", p.Field)
		}
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("empty prompt for field %q", p.Field)
		}
		seen[p.Field] = true
	}
	for _, f := range Fields {
		if !seen[f] {
			return fmt.Errorf("missing prompt for field %q", f)
		}
	}
	if d.ListPattern == nil || d.BrowsePattern == nil {
		return fmt.Errorf("list and browse patterns are required")
	}
	return nil
}

func (d *Dialogue) prompt(f Field) string {
	for _, p := range d.Prompts {
		if p.Field == f {
			return p.Prompt
		}
	}
	return ""
}

func knownField(f Field) bool {
	for _, k := range Fields {
		if k == f {
			return true
		}
	}
	return false
}

func containsFold(words []string, s string) bool {
	for _, w := range words {
		if strings.ToLower(w) == s {
			return true
		}
	}
	return false
}
