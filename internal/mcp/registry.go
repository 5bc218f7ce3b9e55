package mcp

// registry wires every tool name from spec.md §4.5's catalogue to its
// handler.
func registry() map[string]ToolHandler {
	return map[string]ToolHandler{
		"create_session":  toolCreateSession,
		"list_sessions":   toolListSessions,
		"close_session":   toolCloseSession,
		"restore_session": toolRestoreSession,

		"get_debugger_info": toolGetDebuggerInfo,
		"open_dump":         toolOpenDump,
		"close_dump":        toolCloseDump,
		"execute_command":   toolExecuteCommand,

		"inspect_object": toolInspectObject,
		"dump_module":    toolDumpModule,
		"list_modules":   toolListModules,
		"name2ee":        toolName2EE,
		"clr_stack":      toolClrStack,

		"configure_additional_symbols": toolConfigureAdditionalSymbols,
		"reload_symbols":               toolReloadSymbols,
		"clear_symbol_cache":           toolClearSymbolCache,

		"analyze_crash":       toolAnalyzeCrash,
		"analyze_dotnet":      toolAnalyzeDotnet,
		"analyze_perf":        toolAnalyzePerf,
		"analyze_cpu":         toolAnalyzeCPU,
		"analyze_allocations": toolAnalyzeAllocations,
		"analyze_gc":          toolAnalyzeGC,
		"analyze_contention":  toolAnalyzeContention,
		"analyze_security":    toolAnalyzeSecurity,

		"compare_dumps":   toolCompareDumps,
		"compare_heaps":   toolCompareHeaps,
		"compare_threads": toolCompareThreads,
		"compare_modules": toolCompareModules,

		"add_watch":     toolAddWatch,
		"list_watches":  toolListWatches,
		"eval_watch":    toolEvalWatches,
		"eval_watches":  toolEvalWatches,
		"remove_watch":  toolRemoveWatch,
		"clear_watches": toolClearWatches,

		"generate_report":         toolGenerateReport,
		"generate_summary_report": toolGenerateSummaryReport,
	}
}
