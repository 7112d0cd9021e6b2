package config

import (
	"fmt"

	"github.com/m3rciful/pricebot/pricebot/responder"
	"github.com/m3rciful/pricebot/pricebot/talker"
)

const (
	defaultAddPattern    = `^(登録|追加|とうろく|ついか|add)`
	defaultCancelPattern = `^(キャンセル|やめる|cancel|/cancel)$`
	defaultHelpPattern   = `^(ヘルプ|help|/help|/start)$`
	defaultCancelledText = "キャンセルしました。"
	defaultErrorText     = "エラーが発生しました。しばらくしてからもう一度お試しください。"
	defaultHelpText      = "商品名を送ると最安値を表示します。\n" +
		"「登録」で価格を登録します。\n" +
		"「一覧」で登録済みの商品名を表示します。\n" +
		"「キャンセル」で入力を中止します。"
)

func (d *DialogueConfig) applyDefaults() {
	def := responder.DefaultDialogue()
	if len(d.Actions) == 0 {
		d.Actions = []ActionConfig{{Pattern: defaultAddPattern, Status: responder.KindAdd.String()}}
	}
	if len(d.Prompts) == 0 {
		for _, p := range def.Prompts {
			d.Prompts = append(d.Prompts, PromptConfig{Field: string(p.Field), Prompt: p.Prompt})
		}
	}
	fill(&d.ConflictPrompt, def.ConflictPrompt)
	fill(&d.CancelPattern, defaultCancelPattern)
	fill(&d.HelpPattern, defaultHelpPattern)
	fill(&d.ListPattern, def.ListPattern.String())
	fill(&d.BrowsePattern, def.BrowsePattern.String())
	fill(&d.HelpText, defaultHelpText)
	fill(&d.CancelledText, defaultCancelledText)
	fill(&d.ErrorText, defaultErrorText)
	if len(d.YesWords) == 0 {
		d.YesWords = def.YesWords
	}
	if len(d.NoWords) == 0 {
		d.NoWords = def.NoWords
	}
	fill(&d.Replies.Registered, def.Replies.Registered)
	fill(&d.Replies.RegisterCancelled, def.Replies.RegisterCancelled)
	fill(&d.Replies.LookupEnded, def.Replies.LookupEnded)
	fill(&d.Replies.NotFound, def.Replies.NotFound)
	fill(&d.Replies.GuessPrompt, def.Replies.GuessPrompt)
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func (d *DialogueConfig) build() (*responder.Dialogue, error) {
	list, err := compile("dialogue.list_pattern", d.ListPattern)
	if err != nil {
		return nil, err
	}
	browse, err := compile("dialogue.browse_pattern", d.BrowsePattern)
	if err != nil {
		return nil, err
	}
	for key, p := range map[string]string{
		"dialogue.cancel_pattern": d.CancelPattern,
		"dialogue.help_pattern":   d.HelpPattern,
	} {
		if _, err := compile(key, p); err != nil {
			return nil, err
		}
	}

	out := &responder.Dialogue{
		ConflictPrompt: d.ConflictPrompt,
		YesWords:       d.YesWords,
		NoWords:        d.NoWords,
		ListPattern:    list,
		BrowsePattern:  browse,
		Replies: responder.Replies{
			Registered:        d.Replies.Registered,
			RegisterCancelled: d.Replies.RegisterCancelled,
			LookupEnded:       d.Replies.LookupEnded,
			NotFound:          d.Replies.NotFound,
			GuessPrompt:       d.Replies.GuessPrompt,
		},
	}
	for _, p := range d.Prompts {
		out.Prompts = append(out.Prompts, responder.FieldPrompt{Field: responder.Field(p.Field), Prompt: p.Prompt})
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("dialogue: %w", err)
	}
	return out, nil
}

func (d *DialogueConfig) actions() ([]talker.Action, error) {
	out := make([]talker.Action, 0, len(d.Actions))
	for i, a := range d.Actions {
		kind, err := responder.ParseKind(a.Status)
		if err != nil {
			return nil, fmt.Errorf("dialogue.actions[%d]: %w", i, err)
		}
		re, err := compile(fmt.Sprintf("dialogue.actions[%d].pattern", i), a.Pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, talker.Action{Pattern: re, Kind: kind})
	}
	return out, nil
}
