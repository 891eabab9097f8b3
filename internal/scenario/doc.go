// Package scenario models query test scenarios and parses them from XML.
//
// # Scenario Format
//
//	<scenario namespace="shop">
//	  <execute sql-name="create_user">
//	    <param name="id" type="int" value="1"/>
//	    <param name="nick" type="string" is-null="true"/>
//	  </execute>
//	  <transaction>
//	    <execute sql-name="seed_users" dummy="true"/>
//	    <execute sql-name="find_user">
//	      <param type="int" value="1"/>
//	    </execute>
//	  </transaction>
//	</scenario>
//
// Element and attribute names are matched case-insensitively.
//
// # Grouping
//
// Testers nested in a <transaction> share one transaction. A top-level
// <execute> that is not a dummy becomes a transaction of its own; top-level
// dummy executes accumulate into the next transaction that gets flushed.
//
// A <param> without a name is bound positionally.
package scenario
