package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wujs/libnfs/internal/logger"
	"github.com/wujs/libnfs/internal/nfs4/attrs"
	"github.com/wujs/libnfs/internal/nfs4/client"
	"github.com/wujs/libnfs/internal/nfs4/config"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Mount the configured export and stat a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if Flags.Server != "" {
		cfg.Server = Flags.Server
	}
	if Flags.Export != "" {
		cfg.Export = Flags.Export
	}
	if cfg.Server == "" || cfg.Export == "" {
		return fmt.Errorf("server and export must be set, via flags, env, or config file")
	}

	var metrics *client.Metrics
	if cfg.Metrics.Enabled {
		metrics = client.NewMetrics(nil)
	}

	c, err := client.New(metrics)
	if err != nil {
		return fmt.Errorf("construct client: %w", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DialTimeout+cfg.CallTimeout)
	defer cancel()

	if err := awaitMount(ctx, c, cfg); err != nil {
		return err
	}
	logger.Info("mount complete", logger.Server(cfg.Server))

	stat, err := awaitStat(ctx, c, path)
	if err != nil {
		return err
	}

	printStat(path, stat)
	return nil
}

func awaitMount(ctx context.Context, c *client.Client, cfg *config.Config) error {
	done := make(chan error, 1)
	client.MountAsync(ctx, c, cfg.Server, cfg.Export, func(status int, c *client.Client, payload any, cookie any) {
		if status != 0 {
			done <- fmt.Errorf("mount failed (errno %d): %v", status, payload)
			return
		}
		done <- nil
	}, nil)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func awaitStat(ctx context.Context, c *client.Client, path string) (attrs.Stat, error) {
	type result struct {
		stat attrs.Stat
		err  error
	}
	done := make(chan result, 1)
	client.StatAsync(ctx, c, path, false, func(status int, c *client.Client, payload any, cookie any) {
		if status != 0 {
			done <- result{err: fmt.Errorf("stat failed (errno %d): %v", status, payload)}
			return
		}
		stat, _ := payload.(attrs.Stat)
		done <- result{stat: stat}
	}, nil)

	select {
	case r := <-done:
		return r.stat, r.err
	case <-ctx.Done():
		return attrs.Stat{}, ctx.Err()
	}
}

func printStat(path string, stat attrs.Stat) {
	fmt.Printf("%s:\n", path)
	fmt.Printf("  size:    %d\n", stat.Size)
	fmt.Printf("  ino:     %d\n", stat.Ino)
	fmt.Printf("  mode:    %o\n", stat.Mode)
	fmt.Printf("  nlink:   %d\n", stat.Nlink)
	fmt.Printf("  uid:     %d\n", stat.UID)
	fmt.Printf("  gid:     %d\n", stat.GID)
	fmt.Printf("  blksize: %d\n", stat.Blksize)
	fmt.Printf("  blocks:  %d\n", stat.Blocks)
	fmt.Printf("  atime:   %d.%09d\n", stat.Atime.Sec, stat.Atime.Nsec)
	fmt.Printf("  mtime:   %d.%09d\n", stat.Mtime.Sec, stat.Mtime.Nsec)
	fmt.Printf("  ctime:   %d.%09d\n", stat.Ctime.Sec, stat.Ctime.Nsec)
}
