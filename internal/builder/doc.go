/*
Package builder assembles the FlowGraph of one BMF object from its flow source
and its YAML rule files.

The primary artifact produced by this package is a *Result holding the graph,
a success flag, and the errors and warnings collected along the way. Build
never returns an error and never panics.

Graph construction is a multi-phase process:

 1. Flow Parsing: the flow file is located through Sources and analyzed by
    pyflow. Its errors and warnings become those of the build.

 2. Rule Parsing: every YAML file of every configuration category is parsed
    by the rules package. Messages are prefixed with the object-relative path
    of the file.

 3. Graph Assembly: tasks and edges of the flow analysis are inserted into a
    new model.FlowGraph. A rejected task is an error, a rejected edge a
    warning.

 4. Enrichment: task parameters that reference rule files are matched against
    the parsed files by an ordered list of Strategy values, and the summary of
    each matched file is attached to the task.

 5. Auto-Linking: AutoLinkRule hooks add edges that the flow leaves implicit,
    by default the Mapping -> CreateObjects -> GenerateReport chain.

 6. Validation: isolated tasks and dependency cycles are errors. The full
    structural report of the dag package is attached to the result for
    callers that want more detail.
*/
package builder
