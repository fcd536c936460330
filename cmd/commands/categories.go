package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskdeck/internal/api"
)

// NewCategoriesCommand returns the categories subcommand.
func NewCategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Manage categories",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List categories with their task counts",
				Flags:  []cli.Flag{outputFlag()},
				Action: withEnv(runCategoriesList),
			},
			{
				Name:      "show",
				Usage:     "Show one category",
				ArgsUsage: "<category_id>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    withEnv(runCategoriesShow),
			},
			{
				Name:      "tasks",
				Usage:     "List every task of a category",
				ArgsUsage: "<category_id>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    withEnv(runCategoriesTasks),
			},
			{
				Name:      "create",
				Aliases:   []string{"add"},
				Usage:     "Create a category",
				ArgsUsage: "<name>",
				Flags:     append(categoryFlags(), outputFlag()),
				Action:    withEnv(runCategoriesCreate),
			},
			{
				Name:      "edit",
				Usage:     "Edit a category; only the given flags change",
				ArgsUsage: "<category_id>",
				Flags: append(categoryFlags(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					outputFlag(),
				),
				Action: withEnv(runCategoriesEdit),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a category; its tasks are kept without a category",
				ArgsUsage: "<category_id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"}},
				Action:    withEnv(runCategoriesDelete),
			},
		},
		DefaultCommand: "list",
	}
}

func categoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "color", Usage: "Hex color, e.g. #3B82F6"},
		&cli.StringFlag{Name: "icon", Usage: "Icon, usually an emoji"},
	}
}

func categoryTable(cats []api.Category) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tICON\tNAME\tCOLOR\tTASKS")
		for _, c := range cats {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", c.ID, dashIfEmpty(c.Icon), c.Name, c.Color, c.TaskCount)
		}
	}
}

func runCategoriesList(ctx context.Context, cmd *cli.Command, e *env) error {
	c, _, err := e.client()
	if err != nil {
		return err
	}
	list, err := c.ListCategories(ctx)
	if err != nil {
		return describe("list categories", err)
	}
	return render(e.out, cmd.String("output"), list, func(w *tabwriter.Writer) {
		if len(list.Categories) == 0 {
			fmt.Fprintln(w, "No categories.")
			return
		}
		categoryTable(list.Categories)(w)
	})
}

func runCategoriesShow(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "category")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	cat, err := c.GetCategory(ctx, id)
	if err != nil {
		return describe("show category", err)
	}
	return render(e.out, cmd.String("output"), cat, categoryTable([]api.Category{*cat}))
}

func runCategoriesTasks(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "category")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	res, err := c.CategoryTasks(ctx, id)
	if err != nil {
		return describe("category tasks", err)
	}
	return render(e.out, cmd.String("output"), res, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s %s · %d task(s)\n\n", res.Category.Icon, res.Category.Name, res.Total)
		if len(res.Tasks) > 0 {
			taskTable(res.Tasks)(w)
		}
	})
}

func runCategoriesCreate(ctx context.Context, cmd *cli.Command, e *env) error {
	name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("usage: taskdeck categories create <name> [--color #RRGGBB] [--icon X]")
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	cat, err := c.CreateCategory(ctx, api.CategoryInput{
		Name:  name,
		Color: cmd.String("color"),
		Icon:  cmd.String("icon"),
	})
	if err != nil {
		return describe("create category", err)
	}
	return render(e.out, cmd.String("output"), cat, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Created category %d: %s %s\n", cat.ID, cat.Icon, cat.Name)
	})
}

func runCategoriesEdit(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "category")
	if err != nil {
		return err
	}
	var up api.CategoryUpdate
	if cmd.IsSet("name") {
		v := strings.TrimSpace(cmd.String("name"))
		up.Name = &v
	}
	if cmd.IsSet("color") {
		v := cmd.String("color")
		up.Color = &v
	}
	if cmd.IsSet("icon") {
		v := cmd.String("icon")
		up.Icon = &v
	}
	if up == (api.CategoryUpdate{}) {
		return fmt.Errorf("nothing to change: pass --name, --color or --icon")
	}

	c, _, err := e.client()
	if err != nil {
		return err
	}
	cat, err := c.UpdateCategory(ctx, id, up)
	if err != nil {
		return describe("update category", err)
	}
	return render(e.out, cmd.String("output"), cat, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Updated category %d: %s %s\n", cat.ID, cat.Icon, cat.Name)
	})
}

func runCategoriesDelete(ctx context.Context, cmd *cli.Command, e *env) error {
	id, err := idArg(cmd, 0, "category")
	if err != nil {
		return err
	}
	c, _, err := e.client()
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		cat, err := c.GetCategory(ctx, id)
		if err != nil {
			return describe("load category", err)
		}
		if !confirm(fmt.Sprintf("Delete category %q (%d task(s) will lose it)?", cat.Name, cat.TaskCount)) {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
	}
	if err := c.DeleteCategory(ctx, id); err != nil {
		return describe("delete category", err)
	}
	fmt.Fprintf(e.out, "Deleted category %d.\n", id)
	return nil
}
