package forktest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
	"github.com/mantlenetworkio/upgrade-check/op-service/txintent/bindings"
	"github.com/mantlenetworkio/upgrade-check/op-service/txintent/contractio"
)

const (
	StepLegacyRejectsNewMethods = "legacy interface rejects new methods"
	StepUnauthorizedUpgrade     = "unauthorized upgrade rejected"
	StepUpgrade                 = "upgrade"
	StepNewInterfaceExposed     = "new interface exposed"
	StepDowngrade               = "downgrade"
	StepLegacyInterfaceRestored = "legacy interface restored"
)

// DefaultGovernorBalance is the balance the governor is funded with to pay for its transactions.
var DefaultGovernorBalance = hexutil.MustDecodeBig("0xfffffffffffffffff")

var upgradedTopic = crypto.Keccak256Hash([]byte("Upgraded(address)"))

var constructorArgs = abi.Arguments{
	{Name: "mailbox", Type: mustType("address")},
	{Name: "allowList", Type: mustType("address")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Config of an upgrade check.
type Config struct {
	// Proxy is the transparent upgradeable proxy in front of the bridge.
	Proxy common.Address
	// Governor is the proxy admin. It is impersonated.
	Governor common.Address
	// Caller deploys the new implementation and calls the bridge through the proxy.
	// It must not be the governor, as a transparent proxy does not forward admin calls.
	Caller common.Address

	// Mailbox and AllowList are the constructor arguments of the new implementation,
	// and the values its accessors are expected to return.
	Mailbox   common.Address
	AllowList common.Address

	// GovernorBalance is set on the governor before it sends transactions.
	GovernorBalance *big.Int
	// InitCode is the creation code of the new implementation, without constructor arguments.
	InitCode []byte
	// Probes are read through the proxy before the upgrade, and must not change after it.
	Probes []Probe
	// Gas is the gas limit of transactions. Zero leaves it to the fork.
	Gas uint64
}

func (c *Config) Check() error {
	if c.Proxy == (common.Address{}) {
		return errors.New("missing proxy address")
	}
	if c.Governor == (common.Address{}) {
		return errors.New("missing governor address")
	}
	if c.Caller == (common.Address{}) {
		return errors.New("missing caller address")
	}
	if c.Caller == c.Governor {
		return errors.New("caller must differ from governor")
	}
	if len(c.InitCode) == 0 {
		return errors.New("missing implementation init code")
	}
	if c.GovernorBalance != nil && c.GovernorBalance.Sign() < 0 {
		return errors.New("governor balance must not be negative")
	}
	return nil
}

// UpgradeCheck upgrades a bridge proxy to a new implementation and back, on a fork,
// checking the interface exposed through the proxy at every stage.
type UpgradeCheck struct {
	log     log.Logger
	cfg     Config
	fork    apis.ForkClient
	metrics Metricer

	// proxy admin interface, as the governor
	admin *bindings.TransparentUpgradeableProxy
	// proxy admin interface, as the caller
	intruder *bindings.TransparentUpgradeableProxy
	// bridge interface through the proxy, as the caller
	bridge *bindings.L1ERC20BridgeTest

	probes probeSet

	oldImpl common.Address
	newImpl common.Address
	ready   bool
}

func NewUpgradeCheck(logger log.Logger, fork apis.ForkClient, cfg Config, m Metricer) (*UpgradeCheck, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid upgrade check config: %w", err)
	}
	if cfg.GovernorBalance == nil {
		cfg.GovernorBalance = DefaultGovernorBalance
	}
	if m == nil {
		m = NoopMetrics
	}
	return &UpgradeCheck{
		log:     logger.New("proxy", cfg.Proxy),
		cfg:     cfg,
		fork:    fork,
		metrics: m,
		admin: bindings.NewTransparentUpgradeableProxy(
			bindings.WithTo(cfg.Proxy), bindings.WithFrom(cfg.Governor), bindings.WithClient(fork)),
		intruder: bindings.NewTransparentUpgradeableProxy(
			bindings.WithTo(cfg.Proxy), bindings.WithFrom(cfg.Caller), bindings.WithClient(fork)),
		bridge: bindings.NewL1ERC20BridgeTest(
			bindings.WithTo(cfg.Proxy), bindings.WithFrom(cfg.Caller), bindings.WithClient(fork)),
		probes: probeSet{probes: cfg.Probes},
	}, nil
}

func (u *UpgradeCheck) OldImplementation() common.Address {
	return u.oldImpl
}

func (u *UpgradeCheck) NewImplementation() common.Address {
	return u.newImpl
}

func (u *UpgradeCheck) writeOpts() []contractio.Option {
	if u.cfg.Gas == 0 {
		return nil
	}
	return []contractio.Option{contractio.WithGas(u.cfg.Gas)}
}

// Setup prepares the fork: it impersonates and funds the governor, records the current
// implementation, deploys the new one and takes the probe baselines.
// It stops at the first error.
func (u *UpgradeCheck) Setup(ctx context.Context) error {
	for _, addr := range []common.Address{u.cfg.Governor, u.cfg.Caller} {
		if err := u.fork.Impersonate(ctx, addr); err != nil {
			return err
		}
	}
	if err := u.fork.SetBalance(ctx, u.cfg.Governor, u.cfg.GovernorBalance); err != nil {
		return err
	}
	callerBalance, err := u.fork.BalanceAt(ctx, u.cfg.Caller)
	if err != nil {
		return fmt.Errorf("failed to get caller balance: %w", err)
	}
	if callerBalance.Sign() == 0 {
		if err := u.fork.SetBalance(ctx, u.cfg.Caller, u.cfg.GovernorBalance); err != nil {
			return err
		}
	}

	oldImpl, err := contractio.Read(u.admin.Implementation(), ctx)
	if err != nil {
		return fmt.Errorf("failed to read current implementation: %w", err)
	}
	u.oldImpl = oldImpl
	u.log.Info("recorded current implementation", "impl", oldImpl)

	newImpl, err := u.deploy(ctx)
	if err != nil {
		return err
	}
	u.newImpl = newImpl
	u.log.Info("deployed new implementation", "impl", newImpl, "mailbox", u.cfg.Mailbox, "allowList", u.cfg.AllowList)

	if err := u.probes.record(ctx, u.fork, u.cfg.Caller, u.cfg.Proxy); err != nil {
		return fmt.Errorf("failed to record probe baseline: %w", err)
	}
	for sig, v := range u.probes.baseline {
		u.log.Debug("recorded probe baseline", "probe", sig, "value", v)
	}
	u.ready = true
	return nil
}

func (u *UpgradeCheck) deploy(ctx context.Context) (common.Address, error) {
	args, err := constructorArgs.Pack(u.cfg.Mailbox, u.cfg.AllowList)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	code := append(append([]byte(nil), u.cfg.InitCode...), args...)
	receipt, err := u.fork.Send(ctx, ethereum.CallMsg{From: u.cfg.Caller, Data: code, Gas: u.cfg.Gas})
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy new implementation: %w", err)
	}
	addr := receipt.ContractAddress
	deployed, err := u.fork.CodeAt(ctx, addr)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get code of new implementation: %w", err)
	}
	if len(deployed) == 0 {
		return common.Address{}, fmt.Errorf("no code deployed at %s", addr)
	}
	return addr, nil
}

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// Run executes the checks in order. A failing step does not stop the following ones.
func (u *UpgradeCheck) Run(ctx context.Context) *Report {
	report := &Report{
		Proxy:             u.cfg.Proxy,
		Governor:          u.cfg.Governor,
		OldImplementation: u.oldImpl,
		NewImplementation: u.newImpl,
	}
	steps := []step{
		{StepLegacyRejectsNewMethods, u.legacyRejectsNewMethods},
		{StepUnauthorizedUpgrade, u.unauthorizedUpgradeRejected},
		{StepUpgrade, u.upgrade},
		{StepNewInterfaceExposed, u.newInterfaceExposed},
		{StepDowngrade, u.downgrade},
		{StepLegacyInterfaceRestored, u.legacyInterfaceRestored},
	}
	for _, s := range steps {
		start := time.Now()
		var err error
		if !u.ready {
			err = errors.New("setup did not complete")
		} else if err = ctx.Err(); err == nil {
			err = s.fn(ctx)
		}
		res := StepResult{Name: s.name, Err: err, Duration: time.Since(start)}
		report.Steps = append(report.Steps, res)
		u.metrics.RecordStep(s.name, res.Passed(), res.Duration)
		if err != nil {
			u.log.Error("step failed", "step", s.name, "err", err)
		} else {
			u.log.Info("step passed", "step", s.name, "duration", res.Duration)
		}
	}
	u.metrics.RecordRun(report.Passed())
	return report
}

func (u *UpgradeCheck) legacyRejectsNewMethods(ctx context.Context) error {
	return u.expectNotExposed(ctx)
}

func (u *UpgradeCheck) unauthorizedUpgradeRejected(ctx context.Context) error {
	_, err := contractio.Write(u.intruder.UpgradeTo(u.newImpl), ctx, u.writeOpts()...)
	if err == nil {
		return fmt.Errorf("upgradeTo from non-admin %s succeeded", u.cfg.Caller)
	}
	if !IsRevert(err) {
		return fmt.Errorf("upgradeTo from non-admin failed without reverting: %w", err)
	}
	return u.expectImplementation(ctx, u.oldImpl)
}

func (u *UpgradeCheck) upgrade(ctx context.Context) error {
	return u.upgradeTo(ctx, u.newImpl)
}

func (u *UpgradeCheck) newInterfaceExposed(ctx context.Context) error {
	var result *multierror.Error
	allowList, err := contractio.Read(u.bridge.GetAllowList(), ctx)
	if err != nil {
		result = multierror.Append(result, err)
	} else if allowList != u.cfg.AllowList {
		result = multierror.Append(result, fmt.Errorf("getAllowList returned %s, expected %s", allowList, u.cfg.AllowList))
	}
	mailbox, err := contractio.Read(u.bridge.GetZkSyncMailbox(), ctx)
	if err != nil {
		result = multierror.Append(result, err)
	} else if mailbox != u.cfg.Mailbox {
		result = multierror.Append(result, fmt.Errorf("getZkSyncMailbox returned %s, expected %s", mailbox, u.cfg.Mailbox))
	}
	if err := u.probes.verify(ctx, u.fork, u.cfg.Caller, u.cfg.Proxy); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (u *UpgradeCheck) downgrade(ctx context.Context) error {
	return u.upgradeTo(ctx, u.oldImpl)
}

func (u *UpgradeCheck) legacyInterfaceRestored(ctx context.Context) error {
	var result *multierror.Error
	if err := u.expectNotExposed(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := u.expectImplementation(ctx, u.oldImpl); err != nil {
		result = multierror.Append(result, err)
	}
	if err := u.probes.verify(ctx, u.fork, u.cfg.Caller, u.cfg.Proxy); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// upgradeTo points the proxy at impl as the governor, and checks the new implementation.
// A missing Upgraded event is only reported.
func (u *UpgradeCheck) upgradeTo(ctx context.Context, impl common.Address) error {
	receipt, err := contractio.Write(u.admin.UpgradeTo(impl), ctx, u.writeOpts()...)
	if err != nil {
		return err
	}
	u.checkUpgradedLog(receipt, impl)
	return u.expectImplementation(ctx, impl)
}

func (u *UpgradeCheck) checkUpgradedLog(receipt *types.Receipt, impl common.Address) {
	if !hasUpgradedLog(receipt, u.cfg.Proxy, impl) {
		u.log.Warn("proxy emitted no Upgraded event", "impl", impl, "tx", receipt.TxHash)
	}
}

func (u *UpgradeCheck) expectImplementation(ctx context.Context, want common.Address) error {
	got, err := contractio.Read(u.admin.Implementation(), ctx)
	if err != nil {
		return fmt.Errorf("failed to read implementation: %w", err)
	}
	if got != want {
		return fmt.Errorf("implementation is %s, expected %s", got, want)
	}
	return nil
}

// expectNotExposed checks both accessors of the new interface revert through the proxy.
// Errors other than reverts fail the check.
func (u *UpgradeCheck) expectNotExposed(ctx context.Context) error {
	var result *multierror.Error
	for _, call := range []bindings.TypedCall[common.Address]{
		u.bridge.GetAllowList(),
		u.bridge.GetZkSyncMailbox(),
	} {
		out, err := contractio.Read(call, ctx)
		switch {
		case err == nil:
			result = multierror.Append(result, fmt.Errorf("%s unexpectedly returned %s", call.MethodName, out))
		case !IsRevert(err):
			result = multierror.Append(result, fmt.Errorf("%s failed without reverting: %w", call.MethodName, err))
		default:
			u.log.Debug("method not exposed", "method", call.MethodName, "err", err)
		}
	}
	return result.ErrorOrNil()
}

func hasUpgradedLog(receipt *types.Receipt, proxy, impl common.Address) bool {
	for _, l := range receipt.Logs {
		if l.Address == proxy && len(l.Topics) == 2 && l.Topics[0] == upgradedTopic &&
			common.BytesToAddress(l.Topics[1].Bytes()) == impl {
			return true
		}
	}
	return false
}
