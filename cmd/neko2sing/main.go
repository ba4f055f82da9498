package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/John-Robertt/neko2sing/internal/compiler"
	"github.com/John-Robertt/neko2sing/internal/profile"
	"github.com/John-Robertt/neko2sing/internal/render"
	"github.com/John-Robertt/neko2sing/internal/settings"
)

func main() {
	if err := newRootCmd(os.Stdout, nil).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the one-shot command. stdout is injectable for tests;
// a nil logger means "build the real stderr logger from --verbose".
func newRootCmd(stdout io.Writer, logger *zap.Logger) *cobra.Command {
	var (
		dir          string
		outPath      string
		settingsPath string
		strict       bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "neko2sing",
		Short: "把 NekoRay profile 目录汇总为一份 sing-box outbounds 配置",
		Long: "neko2sing 读取 NekoRay 的 profile 存储目录，把每个连接配置转换为 sing-box\n" +
			"outbound，按端点去重后输出一份带 urltest 自动选择组的聚合配置文档。",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger
			if log == nil {
				log = newLogger(verbose)
				defer func() { _ = log.Sync() }()
			}
			return run(dir, outPath, settingsPath, strict, stdout, log)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "profile 存储目录（默认 ~/.config/nekoray/config/profiles）")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "输出文件（默认写到标准输出）")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "YAML 设置文件（urltest 参数、默认端口）")
	cmd.Flags().BoolVar(&strict, "strict", false, "有任何文件或 profile 被跳过时以非零状态退出")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	return cmd
}

func run(dir, outPath, settingsPath string, strict bool, stdout io.Writer, log *zap.Logger) error {
	set, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}

	if dir == "" {
		dir, err = profile.DefaultDir()
		if err != nil {
			return fmt.Errorf("无法确定默认 profile 目录: %w", err)
		}
	}

	profiles, skippedFiles := profile.Load(dir, log)
	log.Debug("profile 加载完成", zap.Int("loaded", len(profiles)), zap.Int("skipped_files", skippedFiles))

	res := compiler.Aggregate(profiles, set, log)
	log.Debug("转换完成", zap.Int("accepted", res.Accepted), zap.Int("rejected", res.Rejected))

	w := stdout
	var f *os.File
	if outPath != "" {
		f, err = os.Create(outPath)
		if err != nil {
			return fmt.Errorf("无法创建输出文件: %w", err)
		}
		w = f
	}
	if err := render.Write(w, res.Document); err != nil {
		if f != nil {
			_ = f.Close()
		}
		return err
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return fmt.Errorf("写入输出文件失败: %w", err)
		}
	}

	if strict && (skippedFiles > 0 || res.Rejected > 0) {
		return fmt.Errorf("strict 模式：跳过了 %d 个文件、%d 个 profile", skippedFiles, res.Rejected)
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}
