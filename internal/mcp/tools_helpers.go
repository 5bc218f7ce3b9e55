package mcp

import "context"

func toolInspectObject(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	addr, err := argUint64(args, "address")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	maxBytes := argIntOpt(args, "maxBytes", 0)
	return drv.InspectObject(ctx, addr, maxBytes)
}

func toolDumpModule(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	addr, err := argUint64(args, "address")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	return drv.DumpModule(ctx, addr)
}

func toolListModules(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	return drv.ListModules(ctx)
}

// toolName2EE mirrors SOS's name2ee: resolve a type name to candidate
// addresses, implemented via the heuristic FindType helper.
func toolName2EE(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	typeName, err := argString(args, "typeName")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	moduleGlob := argStringOpt(args, "module", "")
	return drv.FindType(ctx, typeName, moduleGlob)
}

// toolClrStack mirrors SOS's clrstack: per-thread stacks, implemented via
// the frame-pointer-chain walker.
func toolClrStack(ctx context.Context, d *Dispatcher, args map[string]any) (interface{}, error) {
	sessionID, err := argString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	userID, err := argString(args, "userId")
	if err != nil {
		return nil, err
	}
	if _, err := d.Sessions.Get(sessionID, userID); err != nil {
		return nil, err
	}
	drv, err := d.driverFor(sessionID)
	if err != nil {
		return nil, err
	}
	d.Sessions.Touch(sessionID)
	return drv.WalkManagedStacks(ctx, argUint32Opt(args, "osThreadId"))
}
