package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store the CLI session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: transportUDS, Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: defaultServer},
					&cli.StringFlag{Name: "socket", Value: defaultSocket},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					if cfg.Transport != transportUDS && cfg.Transport != transportHTTP {
						return fmt.Errorf("unknown transport %q", cfg.Transport)
					}
					var out struct {
						Token string `json:"token"`
					}
					if err := doLogin(ctx, cfg, c.String("password"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in via %s\n", cfg.Transport)
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Revoke the stored session token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doLogout(ctx, cfg); err != nil {
						return err
					}
					cfg.Token = ""
					return saveConfig(cfg)
				},
			},
			{
				Name:  "password",
				Usage: "Change the admin password; every other session is revoked",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Token string `json:"token"`
					}
					if err := doChangePassword(ctx, cfg, c.String("current"), c.String("new"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("password changed")
					return nil
				},
			},
		},
	}
}

func buttonsCommand() *cli.Command {
	return &cli.Command{
		Name:  "buttons",
		Usage: "Inspect and edit the button tree",
		Commands: []*cli.Command{
			{
				Name:  "tree",
				Usage: "Print the whole tree",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []*domain.ButtonNode
					if err := doButtonsTree(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printTree(out)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List buttons, optionally the children of one parent (0 for the root level)",
				Flags: []cli.Flag{&cli.UintFlag{Name: "parent"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var parent *uint
					if c.IsSet("parent") {
						v := c.Uint("parent")
						parent = &v
					}
					var out []domain.Button
					if err := doButtonsList(ctx, cfg, parent, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printButtons(out)
					return nil
				},
			},
			{
				Name:  "get",
				Usage: "Show one button",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Button
					if err := doButtonsGet(ctx, cfg, c.Uint("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printButton(out)
					return nil
				},
			},
			{
				Name:  "pages",
				Usage: "Show the keyboard pages of a sibling list",
				Flags: []cli.Flag{&cli.UintFlag{Name: "parent"}, &cli.BoolFlag{Name: "visible"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var parent *uint
					if c.IsSet("parent") {
						v := c.Uint("parent")
						parent = &v
					}
					var out []domain.Page
					if err := doButtonsPages(ctx, cfg, parent, c.Bool("visible"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPages(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a button",
				Flags: append(buttonFieldFlags(),
					&cli.StringFlag{Name: "position", Usage: "top, center or end"},
					jsonFlag(),
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					draft := buttonFields(c)
					if c.IsSet("position") {
						draft["insertPosition"] = c.String("position")
					}
					var out domain.Button
					if err := doButtonsCreate(ctx, cfg, draft, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printButton(out)
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Change fields of a button; --parent 0 moves it to the root level",
				Flags: append(buttonFieldFlags(),
					&cli.UintFlag{Name: "id", Required: true},
					&cli.IntFlag{Name: "order"},
					jsonFlag(),
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					patch := buttonFields(c)
					if c.IsSet("order") {
						patch["orderIndex"] = c.Int("order")
					}
					if len(patch) == 0 {
						return errors.New("nothing to update")
					}
					var out domain.Button
					if err := doButtonsUpdate(ctx, cfg, c.Uint("id"), patch, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printButton(out)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a button and its whole subtree",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Deleted int64 `json:"deleted"`
					}
					if err := doButtonsDelete(ctx, cfg, c.Uint("id"), &out); err != nil {
						return err
					}
					fmt.Printf("deleted %d buttons\n", out.Deleted)
					return nil
				},
			},
			{
				Name:  "batch",
				Usage: "Create every button in a JSON file atomically",
				Flags: []cli.Flag{&cli.StringFlag{Name: "file", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					drafts, err := readJSONFile(c.String("file"))
					if err != nil {
						return err
					}
					var out struct {
						Buttons []domain.Button `json:"buttons"`
						Count   int             `json:"count"`
					}
					if err := doButtonsBatch(ctx, cfg, drafts, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printButtons(out.Buttons)
					return nil
				},
			},
			{
				Name:  "copy",
				Usage: "Duplicate a button, optionally with its subtree",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.IntFlag{Name: "count", Value: 1},
					&cli.BoolFlag{Name: "children"},
					&cli.UintFlag{Name: "into", Usage: "target parent, 0 for the root level"},
					&cli.UintFlag{Name: "after", Usage: "insert right after this sibling"},
					&cli.StringFlag{Name: "position", Usage: "top or end"},
					&cli.StringSliceFlag{Name: "key", Usage: "key for the n-th copy, repeatable"},
					&cli.FloatFlag{Name: "price", Usage: "override the price of copied services"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					req := map[string]any{
						"sourceButtonId": c.Uint("id"),
						"copyCount":      c.Int("count"),
						"copyChildren":   c.Bool("children"),
					}
					if c.IsSet("into") {
						req["targetParentId"] = rootOrID(c.Uint("into"))
					}
					if c.IsSet("after") {
						req["insertAfterButtonId"] = c.Uint("after")
					}
					if c.IsSet("position") {
						req["insertPosition"] = c.String("position")
					}
					if keys := c.StringSlice("key"); len(keys) > 0 {
						names := make([]application.CopyName, 0, len(keys))
						for _, k := range keys {
							names = append(names, application.CopyName{ButtonKey: k})
						}
						req["copyNames"] = names
					}
					if c.IsSet("price") {
						req["overrideServicePrice"] = true
						req["newServicePrice"] = c.Float("price")
					}
					var out application.CopyResult
					if err := doButtonsCopy(ctx, cfg, req, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printCopyResult(out)
					return nil
				},
			},
			{
				Name:  "reorder",
				Usage: "Move a button before or after a target",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.UintFlag{Name: "target", Required: true},
					&cli.StringFlag{Name: "position", Value: string(domain.ReorderAfter), Usage: "before or after"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doButtonsReorder(ctx, cfg, c.Uint("id"), c.Uint("target"), c.String("position")); err != nil {
						return err
					}
					fmt.Println("order updated")
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Write the tree as a JSON document",
				Flags: []cli.Flag{&cli.StringFlag{Name: "out", Usage: "file path, stdout when empty"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var doc json.RawMessage
					if err := doButtonsExport(ctx, cfg, &doc); err != nil {
						return err
					}
					if c.String("out") == "" {
						return printJSON(doc)
					}
					data, err := json.MarshalIndent(doc, "", "  ")
					if err != nil {
						return err
					}
					return os.WriteFile(c.String("out"), data, 0o644)
				},
			},
			{
				Name:  "import",
				Usage: "Replace the whole tree with an exported document",
				Flags: []cli.Flag{&cli.StringFlag{Name: "file", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					doc, err := readJSONFile(c.String("file"))
					if err != nil {
						return err
					}
					var out struct {
						Imported int `json:"imported"`
					}
					if err := doButtonsImport(ctx, cfg, doc, &out); err != nil {
						return err
					}
					fmt.Printf("imported %d buttons\n", out.Imported)
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Replace the whole tree with the default menus",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "confirm"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					if !c.Bool("yes") {
						return errors.New("reset deletes every button; pass --yes to confirm")
					}
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doButtonsReset(ctx, cfg); err != nil {
						return err
					}
					fmt.Println("buttons reset")
					return nil
				},
			},
		},
	}
}

func buttonFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "key"},
		&cli.StringFlag{Name: "ar", Usage: "Arabic text"},
		&cli.StringFlag{Name: "en", Usage: "English text"},
		&cli.StringFlag{Name: "type", Usage: "menu, service, message, link, back, cancel or page_separator"},
		&cli.UintFlag{Name: "parent", Usage: "parent id, 0 for the root level"},
		&cli.StringFlag{Name: "message-ar"},
		&cli.StringFlag{Name: "message-en"},
		&cli.StringFlag{Name: "icon"},
		&cli.FloatFlag{Name: "price"},
		&cli.BoolFlag{Name: "enabled"},
		&cli.BoolFlag{Name: "hidden"},
	}
}

// buttonFields collects the explicitly set field flags in wire names.
func buttonFields(c *cli.Command) map[string]any {
	fields := map[string]any{}
	for flag, name := range map[string]string{
		"key":        "buttonKey",
		"ar":         "textAr",
		"en":         "textEn",
		"type":       "buttonType",
		"message-ar": "messageAr",
		"message-en": "messageEn",
		"icon":       "icon",
	} {
		if c.IsSet(flag) {
			fields[name] = c.String(flag)
		}
	}
	if c.IsSet("parent") {
		fields["parentId"] = rootOrID(c.Uint("parent"))
	}
	if c.IsSet("price") {
		fields["price"] = c.Float("price")
	}
	if c.IsSet("enabled") {
		fields["isEnabled"] = c.Bool("enabled")
	}
	if c.IsSet("hidden") {
		fields["isHidden"] = c.Bool("hidden")
	}
	return fields
}

func rootOrID(id uint) any {
	if id == 0 {
		return nil
	}
	return id
}

func readJSONFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func botCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Bot run state",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.BotStatus
					if err := doBotStatus(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printBotStatus(out)
					return nil
				},
			},
			botSetCommand("start", true),
			botSetCommand("stop", false),
			{
				Name:  "restart",
				Usage: "Stop the bot and start it again after a delay",
				Flags: []cli.Flag{&cli.IntFlag{Name: "seconds", Value: 15}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.BotStatus
					if err := doBotRestart(ctx, cfg, c.Int("seconds"), &out); err != nil {
						return err
					}
					printBotStatus(out)
					return nil
				},
			},
		},
	}
}

func botSetCommand(name string, running bool) *cli.Command {
	return &cli.Command{
		Name: name,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out domain.BotStatus
			if err := doBotSet(ctx, cfg, running, &out); err != nil {
				return err
			}
			printBotStatus(out)
			return nil
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Dashboard settings",
		Commands: []*cli.Command{
			{
				Name: "get",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out map[string]string
					if err := doSettingsGet(ctx, cfg, &out); err != nil {
						return err
					}
					printSettings(out)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Store key=value pairs",
				Flags: []cli.Flag{&cli.StringSliceFlag{Name: "value", Required: true, Usage: "key=value, repeatable"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					values := make(map[string]string)
					for _, pair := range c.StringSlice("value") {
						k, v, ok := strings.Cut(pair, "=")
						if !ok {
							return fmt.Errorf("value %q must be key=value", pair)
						}
						values[strings.TrimSpace(k)] = v
					}
					var out map[string]string
					if err := doSettingsSet(ctx, cfg, values, &out); err != nil {
						return err
					}
					printSettings(out)
					return nil
				},
			},
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "Orders placed through the bot",
		Commands: []*cli.Command{
			{
				Name: "list",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 50},
					&cli.IntFlag{Name: "offset"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.OrderPage
					if err := doOrdersList(ctx, cfg, c.Int("limit"), c.Int("offset"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printOrders(out)
					return nil
				},
			},
			{
				Name:  "get",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Order
					if err := doOrdersGet(ctx, cfg, c.String("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printOrder(out)
					return nil
				},
			},
		},
	}
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Recent admin activity",
		Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 50}, jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out []domain.ActivityLog
			if err := doLogsList(ctx, cfg, c.Int("limit"), &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printActivity(out)
			return nil
		},
	}
}
