package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
	"github.com/Skotchmaster/civic_mirror/pkg/geo"
	"github.com/Skotchmaster/civic_mirror/pkg/triage"
)

// usageError marks a bad invocation. run exits with 2 for it.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string {
	if e.err == nil {
		return "usage: " + e.cmd.UseLine()
	}
	return e.err.Error()
}

func (e *usageError) Unwrap() error { return e.err }

func usage(cmd *cobra.Command, err error) error {
	return &usageError{cmd: cmd, err: err}
}

// checkArgs turns a positional argument failure into a usage error.
func checkArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usage(cmd, err)
		}
		return nil
	}
}

func run(ctx context.Context, client *authclient.Client, args []string, out, errOut io.Writer) int {
	root := newRootCmd(client)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	var uerr *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &uerr):
		if uerr.err != nil {
			fmt.Fprintln(errOut, "civicctl:", uerr.err)
		}
		printUsage(errOut, uerr.cmd)
		return 2
	default:
		fmt.Fprintln(errOut, "civicctl:", describe(err))
		return 1
	}
}

func newRootCmd(client *authclient.Client) *cobra.Command {
	root := &cobra.Command{
		Use:           "civicctl <command>",
		Short:         "Talk to the civic reporting API",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usage(cmd, nil)
			}
			return usage(cmd, fmt.Errorf("unknown command %q", args[0]))
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usage(cmd, err)
	})

	e := &env{client: client}
	root.AddCommand(
		e.loginCmd(),
		e.logoutCmd(),
		e.whoamiCmd(),
		e.registerCmd(),
		e.reportsCmd(),
		e.reportCmd(),
		e.createReportCmd(),
		e.voteCmd(),
		e.commentCmd(),
		e.commentsCmd(),
		e.searchCmd(),
		e.nearbyCmd(),
		e.detailsCmd(),
		e.adminReportsCmd(),
		e.setStatusCmd(),
		e.completeCmd(),
	)
	return root
}

// printUsage prints the usage line of cmd, followed by its subcommands when
// it has any.
func printUsage(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintf(w, "usage: %s\n", cmd.UseLine())
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			fmt.Fprintf(w, "  %s\n", sub.UseLine())
		}
	}
}

func describe(err error) string {
	var apiErr *authclient.APIError
	switch {
	case errors.Is(err, authclient.ErrNotAuthenticated):
		return "not logged in, run: civicctl login <username>"
	case errors.Is(err, authclient.ErrRefreshFailed), errors.Is(err, authclient.ErrNoRefreshToken):
		return "session expired, run: civicctl login <username>"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Detail, apiErr.StatusCode)
	default:
		return err.Error()
	}
}

type env struct {
	client *authclient.Client
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return uint(id), nil
}

// idCmd builds a command taking a single report id.
func idCmd(use, short string, do func(ctx context.Context, id uint) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := do(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}
}

func (e *env) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username|email> [password]",
		Short: "Log in and store the session",
		Long:  "Log in and store the session. The password falls back to CIVIC_PASSWORD.",
		Args:  checkArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("CIVIC_PASSWORD")
			if len(args) == 2 {
				password = args[1]
			}
			if password == "" {
				return errors.New("password required as argument or CIVIC_PASSWORD")
			}
			if _, err := e.client.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", args[0])
			return nil
		},
	}
}

func (e *env) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget the session",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (e *env) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := e.client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, u)
		},
	}
}

func (e *env) registerCmd() *cobra.Command {
	var (
		req  authclient.RegisterRequest
		role string
	)
	cmd := &cobra.Command{
		Use:   "register --email E --username U --password P",
		Short: "Create an account",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Email == "" || req.Username == "" || req.Password == "" {
				return usage(cmd, errors.New("--email, --username and --password are required"))
			}
			if role != "" {
				req.Role = &role
			}
			u, err := e.client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, u)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Username, "username", "", "account username")
	fs.StringVar(&req.Password, "password", os.Getenv("CIVIC_PASSWORD"), "account password")
	fs.BoolVar(&req.IsSuperuser, "superuser", false, "create an administrator")
	fs.StringVar(&role, "role", "", "administrator role")
	return cmd
}

func (e *env) reportsCmd() *cobra.Command {
	var (
		opts authclient.ListOptions
		mine bool
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List reports, newest first",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := e.client.ListReports
			if mine {
				list = e.client.MyReports
			}
			reports, err := list(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, reports)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Status, "status", "", "only reports with this status")
	fs.IntVar(&opts.Skip, "skip", 0, "reports to skip")
	fs.IntVar(&opts.Limit, "limit", 0, "maximum reports to return")
	fs.BoolVar(&mine, "mine", false, "only your own reports")
	return cmd
}

func (e *env) reportCmd() *cobra.Command {
	return idCmd("report <id>", "Show one report", func(ctx context.Context, id uint) (any, error) {
		return e.client.GetReport(ctx, id)
	})
}

func (e *env) createReportCmd() *cobra.Command {
	var (
		req             authclient.CreateReportRequest
		lat, lng, image string
	)
	cmd := &cobra.Command{
		Use:   "create-report --title T",
		Short: "File a new report",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(req.Title) == "" {
				return usage(cmd, errors.New("--title is required"))
			}
			if lat != "" || lng != "" {
				p, err := parsePoint(lat, lng)
				if err != nil {
					return err
				}
				req.Latitude, req.Longitude = &p.Lat, &p.Lng
			}
			if image != "" {
				data, ext, err := readImage(image)
				if err != nil {
					return err
				}
				req.Base64Image, req.ImageType = data, ext
			}
			r, err := e.client.CreateReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&req.Title, "title", "", "short title")
	fs.StringVar(&req.Description, "description", "", "longer description")
	fs.StringVar(&req.Type, "type", "", "report category")
	fs.StringVar(&req.Location, "location", "", "free-form location")
	fs.StringVar(&lat, "lat", "", "latitude")
	fs.StringVar(&lng, "lng", "", "longitude")
	fs.StringVar(&image, "image", "", "image file to attach")
	return cmd
}

func (e *env) voteCmd() *cobra.Command {
	return idCmd("vote <report-id>", "Upvote a report", func(ctx context.Context, id uint) (any, error) {
		return e.client.Vote(ctx, id)
	})
}

func (e *env) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <report-id> <text>",
		Short: "Comment on a report",
		Args:  checkArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := e.client.CreateComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, c)
		},
	}
}

func (e *env) commentsCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "comments <report-id>",
		Short: "List the comments on a report",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := e.client.ReportComments(cmd.Context(), id, skip, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "comments to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum comments to return")
	return cmd
}

func (e *env) searchCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over reports",
		Args:  checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.client.SearchReports(cmd.Context(), strings.Join(args, " "), skip, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "results to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results to return")
	return cmd
}

type nearbyReport struct {
	DistanceKm float64           `json:"distance_km"`
	Report     authclient.Report `json:"report"`
}

// nearbyCmd fetches the newest reports and keeps those within the radius,
// nearest first.
func (e *env) nearbyCmd() *cobra.Command {
	var (
		lat, lng, status string
		radius           float64
		limit            int
	)
	cmd := &cobra.Command{
		Use:   "nearby --lat X --lng Y",
		Short: "List reports around a point",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			center, err := parsePoint(lat, lng)
			if err != nil {
				return err
			}
			if radius <= 0 {
				return errors.New("radius must be positive")
			}

			reports, err := e.client.ListReports(cmd.Context(), authclient.ListOptions{Limit: limit, Status: status})
			if err != nil {
				return err
			}

			matches := geo.Within(center, radius, reports, func(r authclient.Report) (geo.Point, bool) {
				if r.Latitude == nil || r.Longitude == nil {
					return geo.Point{}, false
				}
				return geo.Point{Lat: *r.Latitude, Lng: *r.Longitude}, true
			})
			out := make([]nearbyReport, 0, len(matches))
			for _, m := range matches {
				out = append(out, nearbyReport{DistanceKm: m.DistanceKm, Report: m.Item})
			}
			return printJSON(cmd, out)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&lat, "lat", "", "latitude of the center")
	fs.StringVar(&lng, "lng", "", "longitude of the center")
	fs.Float64Var(&radius, "radius", 5, "radius in kilometres")
	fs.IntVar(&limit, "limit", 100, "newest reports to consider")
	fs.StringVar(&status, "status", "", "only reports with this status")
	return cmd
}

// detailsCmd shows the profile details, or creates/updates them when any
// field flag is given.
func (e *env) detailsCmd() *cobra.Command {
	var (
		age    int
		fields = map[string]*string{}
	)
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Show or update your profile details",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			var d authclient.UserDetails
			changed := false
			if fs.Changed("age") {
				d.Age, changed = &age, true
			}
			set := func(name string, dst **string) {
				if fs.Changed(name) {
					*dst, changed = fields[name], true
				}
			}
			set("sex", &d.Sex)
			set("phone", &d.PhoneNumber)
			set("address", &d.Address)
			set("city", &d.City)
			set("state", &d.State)
			set("pin-code", &d.PinCode)

			ctx := cmd.Context()
			if !changed {
				cur, err := e.client.GetUserDetails(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, cur)
			}

			saved, err := e.client.UpdateUserDetails(ctx, d)
			if authclient.IsStatus(err, http.StatusNotFound) {
				saved, err = e.client.CreateUserDetails(ctx, d)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, saved)
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "age in years")
	for _, name := range []string{"sex", "phone", "address", "city", "state", "pin-code"} {
		fields[name] = cmd.Flags().String(name, "", name)
	}
	return cmd
}

func (e *env) adminReportsCmd() *cobra.Command {
	var (
		f     triage.Filter
		s     triage.Sort
		limit int
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "admin-reports",
		Short: "Triage the reports in your scope",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if s.By != "" && s.By != triage.SortUpvotes && s.By != triage.SortDate {
				return fmt.Errorf("unknown sort %q", s.By)
			}

			reports, err := e.client.AdminReports(cmd.Context(), authclient.ListOptions{Limit: limit})
			if err != nil {
				return err
			}
			view := triage.Apply(reports, f, s)
			if stats {
				return printJSON(cmd, map[string]any{
					"stats":     triage.Summarize(view),
					"locations": triage.Locations(reports),
				})
			}
			return printJSON(cmd, view)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.Status, "status", "", "only reports with this status")
	fs.StringVar(&f.Category, "category", "", "only reports of this category")
	fs.StringVar(&f.Location, "location", "", "only reports at this location")
	fs.StringVar(&f.Query, "q", "", "text to look for in title or description")
	fs.StringVar(&s.By, "sort", "", "upvotes or date")
	fs.BoolVar(&s.Desc, "desc", false, "sort descending")
	fs.IntVar(&limit, "limit", 100, "maximum reports to fetch")
	fs.BoolVar(&stats, "stats", false, "print status counts instead of reports")
	return cmd
}

func (e *env) setStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <report-id> <pending|in_progress|resolved>",
		Short: "Change the status of a report",
		Args:  checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := e.client.UpdateReportStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
}

func (e *env) completeCmd() *cobra.Command {
	return idCmd("complete <report-id>", "Mark a report resolved", func(ctx context.Context, id uint) (any, error) {
		return e.client.CompleteReport(ctx, id)
	})
}
