//go:build linux

package ime

import (
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const componentFile = "vietime.xml"

// LinuxPlatform implements the Platform interface for IBus.
type LinuxPlatform struct {
	config PlatformConfig
}

func newPlatform(config PlatformConfig) Platform {
	return NewLinuxPlatform(config)
}

// NewLinuxPlatform creates a new Linux IME platform.
func NewLinuxPlatform(config PlatformConfig) *LinuxPlatform {
	if config.ComponentDir == "" {
		home, _ := os.UserHomeDir()
		config.ComponentDir = filepath.Join(home, ".local", "share", "ibus", "component")
	}
	return &LinuxPlatform{config: config}
}

func (p *LinuxPlatform) Name() string {
	return "linux"
}

// Available reports whether IBus is installed.
func (p *LinuxPlatform) Available() bool {
	if _, err := os.Stat("/usr/share/ibus/component"); err == nil {
		return true
	}
	_, err := exec.LookPath("ibus-daemon")
	return err == nil
}

// ComponentPath returns where the component XML is written.
func (p *LinuxPlatform) ComponentPath() string {
	return filepath.Join(p.config.ComponentDir, componentFile)
}

// Install writes the component XML and restarts IBus so it is picked up.
func (p *LinuxPlatform) Install() error {
	enginePath, err := p.enginePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.config.ComponentDir, 0755); err != nil {
		return err
	}

	componentXML := p.generateIBusComponent(enginePath)
	tmp := p.ComponentPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(componentXML), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p.ComponentPath()); err != nil {
		os.Remove(tmp)
		return err
	}

	p.restartIBus()
	return nil
}

// enginePath resolves the server binary: the configured path, then
// vietime-ibus next to the running executable, then PATH.
func (p *LinuxPlatform) enginePath() (string, error) {
	if p.config.EnginePath != "" {
		return filepath.Abs(p.config.EnginePath)
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "vietime-ibus")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("vietime-ibus"); err == nil {
		return filepath.Abs(path)
	}
	return "", errors.New("vietime-ibus binary not found; pass its path explicitly")
}

func (p *LinuxPlatform) generateIBusComponent(enginePath string) string {
	name := p.config.DisplayName
	if name == "" {
		name = "Vietnamese (vietime)"
	}
	icon := p.config.IconPath

	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<component>
    <name>%s</name>
    <description>Vietnamese Telex and VNI input method</description>
    <exec>%s --ibus</exec>
    <version>%s</version>
    <author>vietime</author>
    <license>MIT</license>
    <textdomain>vietime</textdomain>
    <engines>
        <engine>
            <name>%s</name>
            <language>vi</language>
            <license>MIT</license>
            <author>vietime</author>
            <icon>%s</icon>
            <layout>us</layout>
            <longname>%s</longname>
            <description>Vietnamese Telex and VNI input method</description>
            <rank>99</rank>
            <symbol>VI</symbol>
        </engine>
    </engines>
</component>
`, vietimeComponentName, html.EscapeString(enginePath), VietimeEngineVersion,
		VietimeEngineName, html.EscapeString(icon), html.EscapeString(name))
}

// vietimeComponentName must match the bus name the server requests.
const vietimeComponentName = VietimeBusName

func (p *LinuxPlatform) restartIBus() {
	p.config.command("ibus", "restart")
}

func (p *LinuxPlatform) Uninstall() error {
	if err := os.Remove(p.ComponentPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	p.restartIBus()
	return nil
}

func (p *LinuxPlatform) IsInstalled() bool {
	_, err := os.Stat(p.ComponentPath())
	return err == nil
}

func (p *LinuxPlatform) IsActive() bool {
	output, err := p.config.command("ibus", "engine")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == VietimeEngineName
}

func (p *LinuxPlatform) Activate() error {
	if _, err := p.config.command("ibus", "engine", VietimeEngineName); err != nil {
		return errors.New("please add Vietnamese (vietime) in your input source settings")
	}
	return nil
}

var _ Platform = (*LinuxPlatform)(nil)
