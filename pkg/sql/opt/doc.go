// Copyright 2024 The Silo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

/*
Package opt contains the cost-based plan transformation core of the SQL
compiler and its supporting packages. Given a validated relational input
tree, it searches the space of equivalent rewritings for the executable
physical plan that satisfies the required physical traits (data
distribution, row ordering) at lowest estimated cost.

The optimizer is organized into several packages:

  - opt (this package): identifiers, operator kinds, per-query metadata,
    scalar payloads and the error taxonomy shared by the other packages.

  - cat: the read-only catalog interfaces through which table schemas and
    statistics snapshots are resolved.

  - props and props/physical: logical properties (output schema, statistics)
    shared by all members of an equivalence group, and the trait algebra
    (convention, distribution, collation) with its satisfaction relation.

  - memo: the equivalence-group arena. Expressions are interned, immutable
    and referenced by (group id, expression id); each group tracks its
    cheapest member per required trait set.

  - xform: the rule engine and the search engine, together with the cost
    model and the two-phase (logical, physical) optimization pipeline.

  - optbuilder: the facade that registers a validated input tree into the
    memo at the unconverted convention.

One Optimizer (see xform) is created per compilation and is single-threaded;
independent compilations may run concurrently over a shared read-only
catalog snapshot.
*/
package opt
