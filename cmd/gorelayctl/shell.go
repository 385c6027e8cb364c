/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"
)

// commandGrammar mirrors statsock/command.go's top-level verbs and their
// first argument, for go-prompt's tab completion.
var commandGrammar = map[string][]string{
	"show":     {"info", "stat", "sess", "errors", "table"},
	"clear":    {"counters", "table"},
	"get":      {"weight"},
	"set":      {"weight", "timeout", "maxconn", "rate-limit", "table"},
	"enable":   {"server", "frontend"},
	"disable":  {"server", "frontend"},
	"shutdown": {"frontend", "session", "sessions"},
	"help":     {},
	"prompt":   {},
	"quit":     {},
}

// RunShell drives an interactive go-prompt session over cli until the
// user runs "quit" or sends EOF (ctrl-d leaves prompt.Input empty).
func RunShell(cli *Client) {
	errColor := color.New(color.FgRed)
	okColor := color.New(color.FgGreen)

	executor := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		reply, err := cli.Execute(line)
		if err != nil {
			errColor.Println(err.Error())
			return
		}
		if reply != "" {
			fmt.Print(reply)
		}
		if line == "quit" {
			panic(shellQuit{})
		}
	}

	completer := func(d prompt.Document) []prompt.Suggest {
		text := d.TextBeforeCursor()
		fields := strings.Fields(text)

		if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(text, " ")) {
			return prompt.FilterHasPrefix(topLevelSuggestions(), d.GetWordBeforeCursor(), true)
		}
		if len(fields) == 1 || (len(fields) == 2 && !strings.HasSuffix(text, " ")) {
			subs, ok := commandGrammar[fields[0]]
			if !ok {
				return nil
			}
			sugg := make([]prompt.Suggest, 0, len(subs))
			for _, s := range subs {
				sugg = append(sugg, prompt.Suggest{Text: s})
			}
			return prompt.FilterHasPrefix(sugg, d.GetWordBeforeCursor(), true)
		}
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(shellQuit); !ok {
				panic(r)
			}
		}
	}()

	p := prompt.New(
		executor,
		completer,
		prompt.OptionPrefix("gorelay> "),
		prompt.OptionTitle("gorelayctl"),
	)
	p.Run()
}

type shellQuit struct{}

func topLevelSuggestions() []prompt.Suggest {
	out := make([]prompt.Suggest, 0, len(commandGrammar))
	for verb := range commandGrammar {
		out = append(out, prompt.Suggest{Text: verb})
	}
	return out
}
