package main

import (
	"fmt"

	"github.com/fwojciec/scrapely"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return scrapely.Errorf(scrapely.EINVALID, "use --force to confirm deletion")
	}

	if c.ID != "" {
		entry, err := deps.Templates.FindTemplateByID(deps.Ctx, c.ID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
			return err
		}
		if entry.Set != c.Set {
			fmt.Fprintf(deps.Stderr, "error: template %s does not belong to set %q\n", c.ID, c.Set)
			return scrapely.Errorf(scrapely.ENOTFOUND, "template %s not in set %q", c.ID, c.Set)
		}
		if err := deps.Templates.DeleteTemplate(deps.Ctx, c.ID); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Deleted template %s from set %q\n", c.ID, c.Set)
		return nil
	}

	n, err := deps.Templates.DeleteTemplatesBySet(deps.Ctx, c.Set)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}
	if n == 0 {
		fmt.Fprintf(deps.Stderr, "error: template set %q not found. Use 'scrapely list' to see available sets.\n", c.Set)
		return scrapely.Errorf(scrapely.ENOTFOUND, "template set %q not found", c.Set)
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d templates from set %q\n", n, c.Set)
	return nil
}
